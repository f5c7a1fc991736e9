package config

// ChainConfig holds the connection details for the voting contract. The
// admin private key signs every transaction the server submits, including
// voter registrations carrying the voter's wallet address.
type ChainConfig struct {
	RpcUrl          string `yaml:"rpc_url"`
	ContractAddress string `yaml:"contract_address"`
	AdminAddress    string `yaml:"admin_address"`
	AdminPrivateKey string `yaml:"admin_private_key"`
}
