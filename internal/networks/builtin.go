package networks

// Chain 984 (IOPN testnet) pays in OPN natively; everywhere else OPN is a token.
const IOPNTestnet uint64 = 984

func builtin() []Network {
	usdt := map[uint64]string{
		1:   "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		137: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
		56:  "0x55d398326f99059fF775485246999027B3197955",
	}
	usdc := map[uint64]string{
		1:   "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		137: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		56:  "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	}
	stables := func(chainID uint64) []Token {
		var out []Token
		if a, ok := usdt[chainID]; ok {
			out = append(out, Token{Symbol: "USDT", Address: a, Decimals: 6})
		}
		if a, ok := usdc[chainID]; ok {
			out = append(out, Token{Symbol: "USDC", Address: a, Decimals: 6})
		}
		return out
	}

	return []Network{
		{ChainID: 1, Name: "Ethereum Mainnet", Symbol: "ETH", Decimals: 18,
			RPCURL: "https://eth.llamarpc.com", Explorer: "https://etherscan.io", Tokens: stables(1)},
		{ChainID: 11155111, Name: "Sepolia Testnet", Symbol: "ETH", Decimals: 18,
			RPCURL: "https://rpc.sepolia.org", Explorer: "https://sepolia.etherscan.io"},
		{ChainID: 137, Name: "Polygon Mainnet", Symbol: "MATIC", Decimals: 18,
			RPCURL: "https://polygon-rpc.com", Explorer: "https://polygonscan.com", Tokens: stables(137)},
		{ChainID: 80001, Name: "Polygon Mumbai", Symbol: "MATIC", Decimals: 18,
			RPCURL: "https://rpc-mumbai.maticvigil.com", Explorer: "https://mumbai.polygonscan.com"},
		{ChainID: 56, Name: "BSC Mainnet", Symbol: "BNB", Decimals: 18,
			RPCURL: "https://bsc-dataseed.binance.org/", Explorer: "https://bscscan.com", Tokens: stables(56)},
		{ChainID: 97, Name: "BSC Testnet", Symbol: "tBNB", Decimals: 18,
			RPCURL: "https://data-seed-prebsc-1-s1.binance.org:8545/", Explorer: "https://testnet.bscscan.com"},
		{ChainID: IOPNTestnet, Name: "IOPN Testnet", Symbol: "OPN", Decimals: 18,
			RPCURL: "https://testnet-rpc.iopn.tech", Explorer: "https://testnet.iopn.tech/",
			NativeAliases: []string{"OPN"}, PrimaryTokenType: "OPN"},
	}
}
