package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/qbx/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Ledger calls a transaction can carry.
const (
	MethodTransfer          = "transfer"
	MethodBurn              = "burn"
	MethodPause             = "pause"
	MethodUnpause           = "unpause"
	MethodTransferOwnership = "transferOwnership"
)

var knownMethods = map[string]bool{
	MethodTransfer:          true,
	MethodBurn:              true,
	MethodPause:             true,
	MethodUnpause:           true,
	MethodTransferOwnership: true,
}

// Tx is a signed ledger call. To is the recipient for transfer and the new
// owner for transferOwnership; Amount is unused by pause, unpause and
// transferOwnership.
type Tx struct {
	Nonce     uint64
	From      common.Address
	Method    string
	To        common.Address
	Amount    *uint256.Int
	Signature []byte
}

// unsignedTx is the RLP layout hashed for signing.
type unsignedTx struct {
	Nonce  uint64
	From   common.Address
	Method string
	To     common.Address
	Amount *big.Int
}

// Hash is keccak256(rlp(nonce, from, method, to, amount)). The signature is
// not covered.
func (tx *Tx) Hash() common.Hash {
	amount := new(big.Int)
	if tx.Amount != nil {
		amount = tx.Amount.ToBig()
	}
	return rlpHash(&unsignedTx{
		Nonce:  tx.Nonce,
		From:   tx.From,
		Method: tx.Method,
		To:     tx.To,
		Amount: amount,
	})
}

// Sender recovers the address that signed the transaction.
func (tx *Tx) Sender() (common.Address, error) {
	if len(tx.Signature) == 0 {
		return common.Address{}, fmt.Errorf("transaction is not signed")
	}
	h := tx.Hash()
	return wallet.VerifyMessage(h.Bytes(), tx.Signature)
}

// SignTx sets From to the key's address and signs the transaction hash.
func SignTx(tx *Tx, key *ecdsa.PrivateKey) error {
	tx.From = crypto.PubkeyToAddress(key.PublicKey)
	h := tx.Hash()
	sig, err := wallet.SignMessage(key, h.Bytes())
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

func rlpHash(x any) (h common.Hash) {
	hw := crypto.NewKeccakState()
	rlp.Encode(hw, x) //nolint:errcheck
	hw.Read(h[:])     //nolint:errcheck
	return h
}
