package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/lmittmann/w3"
)

const distributorABIJSON = `[
{"type":"function","name":"airdropNativeToken","stateMutability":"payable",
 "inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]},
{"type":"function","name":"airdropERC20Token","stateMutability":"payable",
 "inputs":[{"name":"token","type":"address"},{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]}
]`

const erc20ABIJSON = `[
{"type":"function","name":"approve","stateMutability":"nonpayable",
 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"allowance","stateMutability":"view",
 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view",
 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	distributorABI = mustABI(distributorABIJSON)
	erc20ABI       = mustABI(erc20ABIJSON)
)

// Fee and eligibility views of the distributor, read through w3 batches.
var (
	funcIsFeeExempt      = w3.MustNewFunc("isFeeExempt(address)", "bool")
	funcOwner            = w3.MustNewFunc("owner()", "address")
	funcGetFeeInfo       = w3.MustNewFunc("getFeeInfo()", "uint256")
	funcIsWhitelisted    = w3.MustNewFunc("isWhitelisted(address)", "bool")
	funcWhitelistEnabled = w3.MustNewFunc("whitelistEnabled()", "bool")
)

func mustABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}
