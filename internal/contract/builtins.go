package contract

// Built-in IDs.
const (
	BuiltinGamble      = "gamble"
	BuiltinDistributor = "distributor"
	BuiltinForge       = "forge"
	BuiltinERC20       = "erc20"
)

// Event names used by the scan commands.
const (
	EventBetPlaced        = "BetPlaced"
	EventDistributed      = "Distributed"
	EventForgingCompleted = "ForgingCompleted"
	EventTransfer         = "Transfer"
)

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinGamble,
		Name:        "Floppy Gamble",
		Description: "Bet placement and bet lookups on the gamble contract.",
		Human: []string{
			"function placeBet(address receiver, uint256 amount, uint8 tier) external returns (uint256)",
			"function getBetInfoById(uint256 betId) external view returns (tuple(address requester, address receiver, uint8 tier, uint8 status, uint256 amount, uint256 points, uint256 reward, uint256 timestamp, bool win, bool claimed))",
			"function getMinBetAmount() external view returns (uint256)",
			"function getBetsByStatus(uint8 status) external view returns (uint256[] betIds, tuple(address requester, address receiver, uint8 tier, uint8 status, uint256 amount, uint256 points, uint256 reward, uint256 timestamp, bool win, bool claimed)[] bets)",
			"event BetPlaced(address indexed requester, uint256 betId)",
		},
	})
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinDistributor,
		Name:        "Commission Distributor",
		Description: "Emits Distributed for every commission payout.",
		Human: []string{
			"event Distributed(address indexed recipient, uint256 commissionAmount)",
		},
	})
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinForge,
		Name:        "Axie Forge",
		Description: "Emits ForgingCompleted with the AXS fee of each forge.",
		Human: []string{
			"event ForgingCompleted(address indexed requester, uint256 indexed blueprintId, uint256[] axieIds, tuple(uint128 cooldown, uint128 nonce)[] updatedAxieInfos, uint256 feeInAXS)",
		},
	})
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinERC20,
		Name:        "ERC-20 Standard Token",
		Description: "Standard ERC-20 interface (EIP-20).",
		Human: []string{
			"function name() view returns (string)",
			"function symbol() view returns (string)",
			"function decimals() view returns (uint8)",
			"function totalSupply() view returns (uint256)",
			"function balanceOf(address account) view returns (uint256)",
			"function allowance(address owner, address spender) view returns (uint256)",
			"function transfer(address to, uint256 amount) returns (bool)",
			"function approve(address spender, uint256 amount) returns (bool)",
			"function transferFrom(address from, address to, uint256 amount) returns (bool)",
			"event Transfer(address indexed _from, address indexed _to, uint256 _value)",
			"event Approval(address indexed owner, address indexed spender, uint256 value)",
		},
	})
}
