package domain

const (
	// ZeroAddress is the EVM zero address used as the mint/burn sentinel
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)
