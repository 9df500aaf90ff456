package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum    = 1
	ChainIDBase        = 8453
	ChainIDBaseSepolia = 84532
	ChainIDFiat        = 0 // off-chain
)

// Well-known token addresses on Base mainnet
var (
	AddrWETHBase  = common.HexToAddress("0x4200000000000000000000000000000000000006")
	AddrUSDCBase  = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	AddrUSDbCBase = common.HexToAddress("0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA")
	AddrDAIBase   = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
	AddrCbETHBase = common.HexToAddress("0x2Ae3F1Ec7F1F5012CFEab0185bfc7aa3cf0DEc22")
)

// Well-known AssetIDs
var (
	IDBaseETH   = NewNativeAssetID(ChainIDBase)
	IDBaseWETH  = NewTokenAssetID(ChainIDBase, AddrWETHBase)
	IDBaseUSDC  = NewTokenAssetID(ChainIDBase, AddrUSDCBase)
	IDBaseUSDbC = NewTokenAssetID(ChainIDBase, AddrUSDbCBase)
	IDBaseDAI   = NewTokenAssetID(ChainIDBase, AddrDAIBase)
	IDBaseCbETH = NewTokenAssetID(ChainIDBase, AddrCbETHBase)

	IDUSD = NewFiatAssetID("USD")
)

// Well-known Assets (pre-created instances)
var (
	ETH   = NewAssetWithName(IDBaseETH, "ETH", "Ether", 18)
	WETH  = NewAssetWithName(IDBaseWETH, "WETH", "Wrapped Ether", 18)
	USDC  = NewAssetWithName(IDBaseUSDC, "USDC", "USD Coin", 6)
	USDbC = NewAssetWithName(IDBaseUSDbC, "USDbC", "USD Base Coin", 6)
	DAI   = NewAssetWithName(IDBaseDAI, "DAI", "Dai Stablecoin", 18)
	CbETH = NewAssetWithName(IDBaseCbETH, "cbETH", "Coinbase Wrapped Staked ETH", 18)

	USD = NewAssetWithName(IDUSD, "USD", "US Dollar", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ETH)
	r.Register(WETH)
	r.Register(USDC)
	r.Register(USDbC)
	r.Register(DAI)
	r.Register(CbETH)

	r.Register(USD)

	return r
}

// MustNewToken creates an ERC20 token asset, for registering custom tokens.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}
