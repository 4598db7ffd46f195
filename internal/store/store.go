// Package store persists the ledger, account nonces and receipts in a bbolt
// file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"
)

// Errors.
var (
	ErrNotInitialized     = errors.New("ledger not initialized; run `qbx genesis` first")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
)

// LockTimeout bounds how long Open waits for another process to release the file.
const LockTimeout = 5 * time.Second

var (
	bucketMeta     = []byte("meta")
	bucketBalances = []byte("balances")
	bucketNonces   = []byte("nonces")
	bucketReceipts = []byte("receipts")

	keyMetadata = []byte("metadata")
	keyAddress  = []byte("address")
	keyOwner    = []byte("owner")
	keyPaused   = []byte("paused")
	keySupply   = []byte("supply")
	keyHead     = []byte("head")
)

var allBuckets = [][]byte{bucketMeta, bucketBalances, bucketNonces, bucketReceipts}

// Store is a bbolt-backed implementation of chain.Store.
type Store struct {
	db *bbolt.DB
}

var _ chain.Store = (*Store)(nil)

// Open opens (or, unless readOnly, creates) the database at path.
func Open(path string, readOnly bool) (*Store, error) {
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create dir for ledger db: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: LockTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if readOnly {
		return &Store{db: db}, nil
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("could not create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error { return s.db.Close() }

// Init writes the genesis ledger. It fails if a ledger already exists.
func (s *Store) Init(meta token.Metadata, address common.Address, st token.State) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b.Get(keyMetadata) != nil {
			return ErrAlreadyInitialized
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := b.Put(keyMetadata, raw); err != nil {
			return err
		}
		if err := b.Put(keyAddress, address.Bytes()); err != nil {
			return err
		}
		return putState(tx, st)
	})
}

// Metadata returns the token metadata recorded at genesis.
func (s *Store) Metadata() (meta token.Metadata, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		return json.Unmarshal(tx.Bucket(bucketMeta).Get(keyMetadata), &meta)
	})
	return meta, err
}

// Address returns the token contract address recorded at genesis.
func (s *Store) Address() (addr common.Address, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		addr = common.BytesToAddress(tx.Bucket(bucketMeta).Get(keyAddress))
		return nil
	})
	return addr, err
}

// SaveState replaces the persisted ledger state.
func (s *Store) SaveState(st token.State) error {
	return s.update(func(tx *bbolt.Tx) error { return putState(tx, st) })
}

// LoadState reads the ledger state.
func (s *Store) LoadState() (st token.State, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		st.Owner = common.BytesToAddress(meta.Get(keyOwner))
		st.Paused = len(meta.Get(keyPaused)) == 1 && meta.Get(keyPaused)[0] == 1
		st.TotalSupply = new(uint256.Int).SetBytes(meta.Get(keySupply))
		st.Balances = make(token.Allocation)
		return tx.Bucket(bucketBalances).ForEach(func(k, v []byte) error {
			st.Balances[common.BytesToAddress(k)] = new(uint256.Int).SetBytes(v)
			return nil
		})
	})
	return st, err
}

// Nonce returns the next nonce of a.
func (s *Store) Nonce(a common.Address) (n uint64, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketNonces).Get(a.Bytes()); v != nil {
			n = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return n, err
}

// SetNonce records the next nonce of a.
func (s *Store) SetNonce(a common.Address, n uint64) error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNonces).Put(a.Bytes(), u64(n))
	})
}

// Nonces returns every recorded nonce.
func (s *Store) Nonces() (map[common.Address]uint64, error) {
	out := make(map[common.Address]uint64)
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNonces).ForEach(func(k, v []byte) error {
			out[common.BytesToAddress(k)] = binary.BigEndian.Uint64(v)
			return nil
		})
	})
	return out, err
}

// AppendReceipt stores r under its block number and moves the head to it.
func (s *Store) AppendReceipt(r *chain.Receipt) error {
	return s.update(func(tx *bbolt.Tx) error {
		return putReceipt(tx, r, chain.Head{Number: r.BlockNumber, Hash: r.BlockHash})
	})
}

// Receipts returns receipts from block fromBlock onwards, in block order.
func (s *Store) Receipts(fromBlock uint64) ([]*chain.Receipt, error) {
	var out []*chain.Receipt
	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReceipts).Cursor()
		for k, v := c.Seek(u64(fromBlock)); k != nil; k, v = c.Next() {
			r := new(chain.Receipt)
			if err := json.Unmarshal(v, r); err != nil {
				return fmt.Errorf("decoding receipt %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Head returns the latest block; block 0 is genesis.
func (s *Store) Head() (h chain.Head, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyHead)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &h)
	})
	return h, err
}

// Height returns the latest block number.
func (s *Store) Height() (uint64, error) {
	h, err := s.Head()
	return h.Number, err
}

// Commit writes a whole block in one transaction.
func (s *Store) Commit(c *chain.Commit) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := putState(tx, c.State); err != nil {
			return err
		}
		if err := tx.Bucket(bucketNonces).Put(c.Sender.Bytes(), u64(c.Nonce)); err != nil {
			return err
		}
		return putReceipt(tx, c.Receipt, c.Head)
	})
}

// --- internal ---

func (s *Store) view(fn func(*bbolt.Tx) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if err := initialized(tx); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (s *Store) update(fn func(*bbolt.Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := initialized(tx); err != nil {
			return err
		}
		return fn(tx)
	})
}

func initialized(tx *bbolt.Tx) error {
	meta := tx.Bucket(bucketMeta)
	if meta == nil || meta.Get(keyMetadata) == nil {
		return ErrNotInitialized
	}
	return nil
}

func putState(tx *bbolt.Tx, st token.State) error {
	meta := tx.Bucket(bucketMeta)
	paused := []byte{0}
	if st.Paused {
		paused[0] = 1
	}
	supply := new(uint256.Int)
	if st.TotalSupply != nil {
		supply = st.TotalSupply
	} else {
		for _, b := range st.Balances {
			if b != nil {
				supply = new(uint256.Int).Add(supply, b)
			}
		}
	}
	for k, v := range map[string][]byte{
		string(keyOwner):  st.Owner.Bytes(),
		string(keyPaused): paused,
		string(keySupply): supply.Bytes(),
	} {
		if err := meta.Put([]byte(k), v); err != nil {
			return err
		}
	}

	if err := tx.DeleteBucket(bucketBalances); err != nil {
		return err
	}
	bal, err := tx.CreateBucket(bucketBalances)
	if err != nil {
		return err
	}
	for a, v := range st.Balances {
		if v == nil || v.IsZero() {
			continue
		}
		if err := bal.Put(a.Bytes(), v.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func putReceipt(tx *bbolt.Tx, r *chain.Receipt, head chain.Head) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding receipt: %w", err)
	}
	if err := tx.Bucket(bucketReceipts).Put(u64(r.BlockNumber), raw); err != nil {
		return err
	}
	h, err := json.Marshal(head)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keyHead, h)
}

func u64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
