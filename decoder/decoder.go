package decoder

import (
	"encoding/binary"
	"strconv"

	bin "github.com/gagliardetto/binary"
)

// TokenExtensionProgramID is the Token-2022 program whose confidential-transfer
// extension instructions this decoder understands
const TokenExtensionProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

// ExtensionDiscriminator is the leading byte of every confidential-transfer
// extension instruction
const ExtensionDiscriminator byte = 27

const headerLen = 2
const ciphertextLen = 64

// InstructionType identifies a confidential-transfer operation kind
type InstructionType string

const (
	TypeInitializeMint                InstructionType = "InitializeMint"
	TypeUpdateMint                    InstructionType = "UpdateMint"
	TypeConfigureAccount              InstructionType = "ConfigureAccount"
	TypeApproveAccount                InstructionType = "ApproveAccount"
	TypeEmptyAccount                  InstructionType = "EmptyAccount"
	TypeDeposit                       InstructionType = "Deposit"
	TypeWithdraw                      InstructionType = "Withdraw"
	TypeTransfer                      InstructionType = "Transfer"
	TypeApplyPendingBalance           InstructionType = "ApplyPendingBalance"
	TypeEnableConfidentialCredits     InstructionType = "EnableConfidentialCredits"
	TypeDisableConfidentialCredits    InstructionType = "DisableConfidentialCredits"
	TypeEnableNonConfidentialCredits  InstructionType = "EnableNonConfidentialCredits"
	TypeDisableNonConfidentialCredits InstructionType = "DisableNonConfidentialCredits"
	TypeTransferWithFee               InstructionType = "TransferWithFee"
	TypeTransferWithSplitProofs       InstructionType = "TransferWithSplitProofs"
	TypeUnknown                       InstructionType = "Unknown"
)

// instructionTypes maps the sub-instruction discriminator byte to its kind.
// Unmapped values decode as Unknown, never as an error.
var instructionTypes = map[byte]InstructionType{
	0:  TypeInitializeMint,
	1:  TypeUpdateMint,
	2:  TypeConfigureAccount,
	3:  TypeApproveAccount,
	4:  TypeEmptyAccount,
	5:  TypeDeposit,
	6:  TypeWithdraw,
	7:  TypeTransfer,
	8:  TypeApplyPendingBalance,
	9:  TypeEnableConfidentialCredits,
	10: TypeDisableConfidentialCredits,
	11: TypeEnableNonConfidentialCredits,
	12: TypeDisableNonConfidentialCredits,
	13: TypeTransferWithFee,
	14: TypeTransferWithSplitProofs,
}

// Decoded is a partially populated view of one confidential-transfer
// instruction. Empty string fields mean the account role could not be
// assigned from the instruction alone.
type Decoded struct {
	Type               InstructionType
	SourceTokenAccount string
	DestTokenAccount   string
	Mint               string
	SourceOwner        string
	DestOwner          string
	CiphertextLo       []byte
	CiphertextHi       []byte
	PublicAmount       string
	Data               []byte
}

type accountRole int

const (
	roleSourceTokenAccount accountRole = iota
	roleDestTokenAccount
	roleMint
	roleSourceOwner
	roleDestOwner
)

type roleAssignment struct {
	index int
	roles []accountRole
}

// accountLayout assigns roles to account-list positions when the list carries
// at least minAccounts entries. Layouts are tried in order; the first whose
// threshold is met wins, since longer lists carry extra proof-context accounts.
type accountLayout struct {
	minAccounts int
	assign      []roleAssignment
}

var transferLayouts = []accountLayout{
	{minAccounts: 8, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount}},
		{1, []accountRole{roleMint}},
		{2, []accountRole{roleDestTokenAccount}},
		{7, []accountRole{roleSourceOwner}},
	}},
	{minAccounts: 4, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount}},
		{1, []accountRole{roleMint}},
		{2, []accountRole{roleDestTokenAccount}},
		{3, []accountRole{roleSourceOwner}},
	}},
}

var accountConfigLayouts = []accountLayout{
	{minAccounts: 3, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount, roleDestTokenAccount}},
		{1, []accountRole{roleMint}},
		{2, []accountRole{roleSourceOwner, roleDestOwner}},
	}},
}

var mintLayouts = []accountLayout{
	{minAccounts: 1, assign: []roleAssignment{
		{0, []accountRole{roleMint}},
	}},
}

var unknownLayouts = []accountLayout{
	{minAccounts: 3, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount}},
		{1, []accountRole{roleMint}},
		{2, []accountRole{roleSourceOwner}},
	}},
	{minAccounts: 2, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount}},
		{1, []accountRole{roleMint}},
	}},
	{minAccounts: 1, assign: []roleAssignment{
		{0, []accountRole{roleSourceTokenAccount}},
	}},
}

var accountLayouts = map[InstructionType][]accountLayout{
	TypeTransfer:                transferLayouts,
	TypeTransferWithFee:         transferLayouts,
	TypeTransferWithSplitProofs: transferLayouts,
	TypeDeposit: {
		{minAccounts: 3, assign: []roleAssignment{
			{0, []accountRole{roleDestTokenAccount}},
			{1, []accountRole{roleMint}},
			{2, []accountRole{roleSourceOwner, roleDestOwner}},
		}},
	},
	TypeWithdraw: {
		{minAccounts: 3, assign: []roleAssignment{
			{0, []accountRole{roleSourceTokenAccount}},
			{1, []accountRole{roleMint}},
			{2, []accountRole{roleSourceOwner, roleDestOwner}},
		}},
	},
	TypeApplyPendingBalance: {
		{minAccounts: 2, assign: []roleAssignment{
			{0, []accountRole{roleSourceTokenAccount, roleDestTokenAccount}},
			{1, []accountRole{roleSourceOwner, roleDestOwner}},
		}},
	},
	TypeConfigureAccount:              accountConfigLayouts,
	TypeApproveAccount:                accountConfigLayouts,
	TypeEmptyAccount:                  accountConfigLayouts,
	TypeEnableConfidentialCredits:     accountConfigLayouts,
	TypeDisableConfidentialCredits:    accountConfigLayouts,
	TypeEnableNonConfidentialCredits:  accountConfigLayouts,
	TypeDisableNonConfidentialCredits: accountConfigLayouts,
	TypeInitializeMint:                mintLayouts,
	TypeUpdateMint:                    mintLayouts,
	TypeUnknown:                       unknownLayouts,
}

func isTransfer(t InstructionType) bool {
	return t == TypeTransfer || t == TypeTransferWithFee || t == TypeTransferWithSplitProofs
}

// Decode parses one raw instruction. It returns nil when the instruction is
// not a confidential-transfer extension instruction (wrong program, too short
// to carry a discriminator pair, or wrong extension prefix); that is not an
// error. An applicable instruction always decodes, possibly with absent
// optional fields when the buffer is shorter than its type's full layout.
func Decode(programID string, data []byte, accounts []string) *Decoded {
	if programID != TokenExtensionProgramID {
		return nil
	}
	if len(data) < headerLen || data[0] != ExtensionDiscriminator {
		return nil
	}

	ixType, ok := instructionTypes[data[1]]
	if !ok {
		ixType = TypeUnknown
	}

	out := &Decoded{
		Type: ixType,
		Data: data,
	}

	switch {
	case isTransfer(ixType):
		// Two 64-byte ElGamal ciphertext halves at fixed offsets. A shorter
		// buffer is a variant this decoder does not fully understand, not fatal.
		if len(data) >= headerLen+2*ciphertextLen {
			out.CiphertextLo = append([]byte(nil), data[headerLen:headerLen+ciphertextLen]...)
			out.CiphertextHi = append([]byte(nil), data[headerLen+ciphertextLen:headerLen+2*ciphertextLen]...)
		}
	case ixType == TypeDeposit || ixType == TypeWithdraw:
		if len(data) >= headerLen+8 {
			dec := bin.NewBinDecoder(data[headerLen:])
			amount, err := dec.ReadUint64(binary.LittleEndian)
			if err == nil {
				out.PublicAmount = strconv.FormatUint(amount, 10)
			}
		}
	}

	applyLayout(out, accounts)

	return out
}

func applyLayout(out *Decoded, accounts []string) {
	layouts := accountLayouts[out.Type]
	for _, layout := range layouts {
		if len(accounts) < layout.minAccounts {
			continue
		}
		for _, a := range layout.assign {
			if a.index >= len(accounts) {
				continue
			}
			addr := accounts[a.index]
			for _, role := range a.roles {
				switch role {
				case roleSourceTokenAccount:
					out.SourceTokenAccount = addr
				case roleDestTokenAccount:
					out.DestTokenAccount = addr
				case roleMint:
					out.Mint = addr
				case roleSourceOwner:
					out.SourceOwner = addr
				case roleDestOwner:
					out.DestOwner = addr
				}
			}
		}
		return
	}
	// Below every threshold: leave all role fields unassigned
}
