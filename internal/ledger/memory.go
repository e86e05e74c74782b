package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Memory is an in-process ledger used for development and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[common.Address]*collection
	tokens      map[common.Address]*fungible
	native      *fungible
}

type collection struct {
	name      string
	symbol    string
	owner     common.Address
	nextId    uint64
	owners    map[string]common.Address
	approvals map[string]common.Address
	operators map[common.Address]map[common.Address]bool
}

type fungible struct {
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[common.Address]*collection),
		tokens:      make(map[common.Address]*fungible),
		native:      newFungible(),
	}
}

func newFungible() *fungible {
	return &fungible{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (f *fungible) balance(account common.Address) *big.Int {
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (f *fungible) allowance(owner, spender common.Address) *big.Int {
	if a, ok := f.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (f *fungible) setAllowance(owner, spender common.Address, amount *big.Int) {
	if _, ok := f.allowances[owner]; !ok {
		f.allowances[owner] = make(map[common.Address]*big.Int)
	}
	f.allowances[owner][spender] = amount
}

func key(tokenId *big.Int) string {
	return tokenId.String()
}

func (c *collection) approvedOrOwner(spender common.Address, tokenId *big.Int) bool {
	owner, ok := c.owners[key(tokenId)]
	if !ok {
		return false
	}
	if spender == owner || c.approvals[key(tokenId)] == spender {
		return true
	}
	return c.operators[owner][spender]
}

// CreateCollection registers an NFT contract owned by owner.
func (m *Memory) CreateCollection(contract, owner common.Address, name, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.createCollection(Op{Contract: contract, To: owner, Name: name, Symbol: symbol})
	return err
}

// Mint issues the next sequential token id of contract to the given owner.
func (m *Memory) Mint(contract, to common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(contract)
	if err != nil {
		return nil, err
	}

	id := new(big.Int).SetUint64(c.nextId + 1)
	if _, err := m.mint(Op{Operator: c.owner, Contract: contract, To: to, TokenId: id}); err != nil {
		return nil, err
	}

	return id, nil
}

func (m *Memory) Approve(contract, owner, spender common.Address, tokenId *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(contract)
	if err != nil {
		return err
	}
	if c.owners[key(tokenId)] != owner {
		return failure.New(failure.Unauthorized, "approve caller is not owner of token %s", tokenId)
	}
	c.approvals[key(tokenId)] = spender

	return nil
}

func (m *Memory) SetApprovalForAll(contract, owner, operator common.Address, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(contract)
	if err != nil {
		return err
	}
	if _, ok := c.operators[owner]; !ok {
		c.operators[owner] = make(map[common.Address]bool)
	}
	c.operators[owner][operator] = approved

	return nil
}

// CreateToken registers an ERC20-like token.
func (m *Memory) CreateToken(token common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token]; !ok {
		m.tokens[token] = newFungible()
	}
}

// Credit adds amount to the account balance of token, or of the native currency for the zero address.
func (m *Memory) Credit(token, account common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.fungible(token)
	if err != nil {
		return err
	}
	f.balances[account] = new(big.Int).Add(f.balance(account), amount)

	return nil
}

func (m *Memory) IncreaseAllowance(token, owner, spender common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.fungible(token)
	if err != nil {
		return err
	}
	f.setAllowance(owner, spender, new(big.Int).Add(f.allowance(owner, spender), amount))

	return nil
}

// Transfer moves an NFT on behalf of its owner or an approved operator.
func (m *Memory) Transfer(contract, operator, from, to common.Address, tokenId *big.Int) error {
	return m.Apply(context.Background(), []Op{NFTTransfer(operator, contract, from, to, tokenId)})
}

func (m *Memory) OwnerOf(_ context.Context, contract common.Address, tokenId *big.Int) (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.collection(contract)
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := c.owners[key(tokenId)]
	if !ok {
		return common.Address{}, failure.New(failure.NotFound, "token %s of %s does not exist", tokenId, contract.Hex())
	}

	return owner, nil
}

func (m *Memory) IsApprovedOrOwner(_ context.Context, contract, spender common.Address, tokenId *big.Int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.collection(contract)
	if err != nil {
		return false, err
	}
	if _, ok := c.owners[key(tokenId)]; !ok {
		return false, failure.New(failure.NotFound, "token %s of %s does not exist", tokenId, contract.Hex())
	}

	return c.approvedOrOwner(spender, tokenId), nil
}

func (m *Memory) BalanceOf(_ context.Context, token, account common.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.fungible(token)
	if err != nil {
		return nil, err
	}

	return f.balance(account), nil
}

func (m *Memory) Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.fungible(token)
	if err != nil {
		return nil, err
	}

	return f.allowance(owner, spender), nil
}

func (m *Memory) ContractOwner(_ context.Context, contract common.Address) (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.collection(contract)
	if err != nil {
		return common.Address{}, err
	}

	return c.owner, nil
}

func (m *Memory) Apply(ctx context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	undo := make([]func(), 0, len(ops))
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			rollback()
			return errors.WithStack(err)
		}

		var (
			u   func()
			err error
		)
		switch op.Kind {
		case TransferNFT:
			u, err = m.transferNFT(op)
		case TransferToken:
			u, err = m.transferToken(op)
		case CreateCollection:
			u, err = m.createCollection(op)
		case Mint:
			u, err = m.mint(op)
		case Burn:
			u, err = m.burn(op)
		default:
			err = failure.New(failure.InvalidArgument, "unknown ledger op %q", op.Kind)
		}

		if err != nil {
			rollback()
			zap.L().With(zap.Int("op", i), zap.String("kind", string(op.Kind)), zap.Error(err)).Debug("Ledger: Batch rolled back")
			return errors.Wrapf(err, "ledger op %d (%s)", i, op.Kind)
		}
		undo = append(undo, u)
	}

	return nil
}

func (m *Memory) collection(contract common.Address) (*collection, error) {
	c, ok := m.collections[contract]
	if !ok {
		return nil, failure.New(failure.NotFound, "unknown NFT contract %s", contract.Hex())
	}
	return c, nil
}

func (m *Memory) fungible(token common.Address) (*fungible, error) {
	if token == (common.Address{}) {
		return m.native, nil
	}
	f, ok := m.tokens[token]
	if !ok {
		return nil, failure.New(failure.NotFound, "unknown token %s", token.Hex())
	}
	return f, nil
}

func (m *Memory) transferNFT(op Op) (func(), error) {
	c, err := m.collection(op.Contract)
	if err != nil {
		return nil, err
	}

	k := key(op.TokenId)
	owner, ok := c.owners[k]
	if !ok {
		return nil, failure.New(failure.NotFound, "token %s of %s does not exist", op.TokenId, op.Contract.Hex())
	}
	if owner != op.From {
		return nil, failure.New(failure.InvalidState, "token %s is not owned by %s", op.TokenId, op.From.Hex())
	}
	if op.To == (common.Address{}) {
		return nil, failure.New(failure.InvalidArgument, "transfer to the zero address")
	}
	if !c.approvedOrOwner(op.Operator, op.TokenId) {
		return nil, failure.New(failure.Unauthorized, "%s is not approved for token %s", op.Operator.Hex(), op.TokenId)
	}

	approval, approved := c.approvals[k]
	c.owners[k] = op.To
	delete(c.approvals, k)

	return func() {
		c.owners[k] = owner
		if approved {
			c.approvals[k] = approval
		}
	}, nil
}

func (m *Memory) transferToken(op Op) (func(), error) {
	f, err := m.fungible(op.Contract)
	if err != nil {
		return nil, err
	}
	if op.Amount == nil || op.Amount.Sign() == 0 {
		return func() {}, nil
	}
	if op.Amount.Sign() < 0 {
		return nil, failure.New(failure.InvalidArgument, "negative transfer amount")
	}

	native := op.Contract == (common.Address{})
	if native && op.Operator != op.From {
		return nil, failure.New(failure.Unauthorized, "native value can only be sent by its holder")
	}

	var prevAllowance *big.Int
	if !native && op.Operator != op.From {
		prevAllowance = f.allowance(op.From, op.Operator)
		if prevAllowance.Cmp(op.Amount) < 0 {
			return nil, failure.Coded(failure.InsufficientFunds, failure.CodeLowAllowance, "allowance %s below %s", prevAllowance, op.Amount)
		}
	}

	fromBalance := f.balance(op.From)
	if fromBalance.Cmp(op.Amount) < 0 {
		return nil, failure.Coded(failure.InsufficientFunds, failure.CodeLowBalance, "balance %s below %s", fromBalance, op.Amount)
	}
	toBalance := f.balance(op.To)

	f.balances[op.From] = new(big.Int).Sub(fromBalance, op.Amount)
	f.balances[op.To] = new(big.Int).Add(f.balance(op.To), op.Amount)
	if prevAllowance != nil {
		f.setAllowance(op.From, op.Operator, new(big.Int).Sub(prevAllowance, op.Amount))
	}

	return func() {
		f.balances[op.To] = toBalance
		f.balances[op.From] = fromBalance
		if prevAllowance != nil {
			f.setAllowance(op.From, op.Operator, prevAllowance)
		}
	}, nil
}

func (m *Memory) createCollection(op Op) (func(), error) {
	if _, ok := m.collections[op.Contract]; ok {
		return nil, failure.New(failure.InvalidState, "NFT contract %s already exists", op.Contract.Hex())
	}

	m.collections[op.Contract] = &collection{
		name:      op.Name,
		symbol:    op.Symbol,
		owner:     op.To,
		owners:    make(map[string]common.Address),
		approvals: make(map[string]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
	}

	return func() {
		delete(m.collections, op.Contract)
	}, nil
}

func (m *Memory) mint(op Op) (func(), error) {
	c, err := m.collection(op.Contract)
	if err != nil {
		return nil, err
	}
	if op.Operator != c.owner {
		return nil, failure.New(failure.Unauthorized, "%s cannot mint on %s", op.Operator.Hex(), op.Contract.Hex())
	}
	if op.To == (common.Address{}) {
		return nil, failure.New(failure.InvalidArgument, "mint to the zero address")
	}
	if op.TokenId == nil {
		return nil, failure.New(failure.InvalidArgument, "mint without token id")
	}

	k := key(op.TokenId)
	if _, ok := c.owners[k]; ok {
		return nil, failure.New(failure.InvalidState, "token %s already minted", op.TokenId)
	}

	prevNext := c.nextId
	c.owners[k] = op.To
	if op.TokenId.IsUint64() && op.TokenId.Uint64() > c.nextId {
		c.nextId = op.TokenId.Uint64()
	}

	return func() {
		delete(c.owners, k)
		c.nextId = prevNext
	}, nil
}

func (m *Memory) burn(op Op) (func(), error) {
	c, err := m.collection(op.Contract)
	if err != nil {
		return nil, err
	}

	k := key(op.TokenId)
	owner, ok := c.owners[k]
	if !ok {
		return nil, failure.New(failure.NotFound, "token %s of %s does not exist", op.TokenId, op.Contract.Hex())
	}
	if owner != op.From {
		return nil, failure.New(failure.InvalidState, "token %s is not owned by %s", op.TokenId, op.From.Hex())
	}
	if !c.approvedOrOwner(op.Operator, op.TokenId) {
		return nil, failure.New(failure.Unauthorized, "%s is not approved for token %s", op.Operator.Hex(), op.TokenId)
	}

	approval, approved := c.approvals[k]
	delete(c.owners, k)
	delete(c.approvals, k)

	return func() {
		c.owners[k] = owner
		if approved {
			c.approvals[k] = approval
		}
	}, nil
}
