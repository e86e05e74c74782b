package api

import (
	"context"
	"math/big"
	"net/http"
	"testing"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandResult struct {
	Ids     []uint64       `json:"ids"`
	Address common.Address `json:"address"`
	Events  []struct {
		Type event.Type `json:"type"`
	} `json:"events"`
}

func (r commandResult) types() []event.Type {
	types := make([]event.Type, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}

func (f *fixture) command(method, path, body string, caller common.Address) commandResult {
	rec := f.do(method, path, []byte(body), caller)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	var result commandResult
	decode(f.t, rec, &result)
	return result
}

func (f *fixture) ownerOf(tokenId int64) common.Address {
	owner, err := f.mem.OwnerOf(context.Background(), nft, big.NewInt(tokenId))
	require.NoError(f.t, err)
	return owner
}

func TestCommands_RequireCaller(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/contracts/"+nft.Hex(), nil, common.Address{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/asks/1/buy", nil, common.Address{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCommands_FeeAdministration(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/fees/default", []byte(`{"marketplace":300,"owner":500,"merchant":300,"collector":100}`), buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPut, "/fees/default", []byte(`{"marketplace":20000}`), deployer)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	result := f.command(http.MethodPut, "/fees/default", `{"marketplace":300,"owner":500,"merchant":300,"collector":100}`, deployer)
	assert.Equal(t, []event.Type{event.SetDefaultFee}, result.types())

	result = f.command(http.MethodPut, "/fees/"+nft.Hex(), `{"marketplace":100,"owner":0,"merchant":0}`, deployer)
	assert.Equal(t, []event.Type{event.SetCustomFee}, result.types())

	rec = f.do(http.MethodGet, "/fees/"+nft.Hex(), nil, common.Address{})
	var cfg entity.FeeConfig
	decode(t, rec, &cfg)
	assert.Equal(t, uint64(100), cfg.Marketplace)
	assert.Equal(t, uint64(100), cfg.Collector)

	f.command(http.MethodDelete, "/fees/"+nft.Hex(), "", deployer)
	rec = f.do(http.MethodDelete, "/fees/"+nft.Hex(), nil, deployer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommands_AskLifecycle(t *testing.T) {
	f := newFixture(t)
	sell := `{"contract":"` + nft.Hex() + `","tokenIds":[2],"price":1000}`

	rec := f.do(http.MethodPost, "/asks", []byte(sell), f.seller)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPut, "/contracts/"+nft.Hex(), nil, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.command(http.MethodPut, "/contracts/"+nft.Hex(), "", deployer)

	result := f.command(http.MethodPost, "/asks", sell, f.seller)
	require.Equal(t, []uint64{1}, result.Ids)
	assert.Equal(t, []event.Type{event.Ask}, result.types())

	f.command(http.MethodPut, "/asks/1/price", `{"price":2000}`, f.seller)
	listing, err := f.market.GetAsk(1)
	require.NoError(t, err)
	assert.Equal(t, "2000", listing.Price.String())

	f.command(http.MethodPut, "/asks/1/suspension", "", deployer)
	rec = f.do(http.MethodPost, "/asks/1/buy", nil, buyer)
	assert.Equal(t, http.StatusConflict, rec.Code)
	f.command(http.MethodDelete, "/asks/1/suspension", "", deployer)

	f.command(http.MethodPut, "/collectors/"+buyer.Hex()+"/suspension", "", deployer)
	assert.True(t, f.market.IsSuspendCollector(buyer))
	rec = f.do(http.MethodPost, "/asks/1/buy", nil, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.command(http.MethodDelete, "/collectors/"+buyer.Hex()+"/suspension", "", deployer)

	result = f.command(http.MethodPost, "/asks/1/buy", "", buyer)
	assert.Equal(t, []event.Type{event.Trade, event.LogBuy}, result.types())
	assert.Equal(t, buyer, f.ownerOf(2))

	rec = f.do(http.MethodGet, "/asks", nil, common.Address{})
	var listings []entity.Listing
	decode(t, rec, &listings)
	require.Len(t, listings, 1)
	assert.False(t, listings[0].Active)

	result = f.command(http.MethodPost, "/asks", `{"contract":"`+nft.Hex()+`","tokenIds":[3],"price":500}`, f.seller)
	require.Equal(t, []uint64{2}, result.Ids)
	result = f.command(http.MethodDelete, "/asks/2", "", f.seller)
	assert.Equal(t, []event.Type{event.CancelSellNFT}, result.types())

	rec = f.do(http.MethodPost, "/asks", []byte(`{"contract":"`+nft.Hex()+`","tokenIds":[],"price":500}`), f.seller)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommands_PauseAndRoles(t *testing.T) {
	f := newFixture(t)
	f.command(http.MethodPut, "/contracts/"+nft.Hex(), "", deployer)

	f.command(http.MethodPost, "/marketplace/pause", "", deployer)
	rec := f.do(http.MethodPost, "/asks", []byte(`{"contract":"`+nft.Hex()+`","tokenIds":[2],"price":1000}`), f.seller)
	assert.Equal(t, http.StatusConflict, rec.Code)
	f.command(http.MethodPost, "/marketplace/unpause", "", deployer)
	assert.False(t, f.market.Paused())

	result := f.command(http.MethodPut, "/roles/MERCHANT_ROLE/"+f.seller.Hex(), "", deployer)
	assert.Equal(t, []event.Type{event.RoleGranted}, result.types())
	assert.True(t, f.market.HasRole(access.MerchantRole, f.seller))

	f.command(http.MethodDelete, "/roles/MERCHANT_ROLE/"+f.seller.Hex(), "", deployer)
	assert.False(t, f.market.HasRole(access.MerchantRole, f.seller))

	rec = f.do(http.MethodPut, "/roles/BOGUS_ROLE/"+f.seller.Hex(), nil, deployer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/roles/OPS_ROLE/"+buyer.Hex(), nil, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCommands_TokensAndRoyalties(t *testing.T) {
	f := newFixture(t)
	usdt := common.HexToAddress("0x2000000000000000000000000000000000000003")

	rec := f.do(http.MethodPut, "/tokens/"+usdt.Hex(), nil, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	result := f.command(http.MethodPut, "/tokens/"+usdt.Hex(), "", deployer)
	assert.Equal(t, []event.Type{event.AddToken}, result.types())
	f.command(http.MethodDelete, "/tokens/"+usdt.Hex(), "", deployer)

	rec = f.do(http.MethodPut, "/royalties/"+nft.Hex(), []byte(`{"receiver":"`+creator.Hex()+`","bps":500}`), buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.command(http.MethodPut, "/royalties/"+nft.Hex(), `{"receiver":"`+creator.Hex()+`","bps":500}`, creator)
	rec = f.do(http.MethodGet, "/royalties/"+nft.Hex(), nil, common.Address{})
	var royalty entity.RoyaltyFee
	decode(t, rec, &royalty)
	assert.Equal(t, uint64(500), royalty.Bps)
}

func TestCommands_BlindBoxLifecycle(t *testing.T) {
	f := newFixture(t)

	result := f.command(http.MethodPost, "/blindboxes", `{"name":"Mystery","symbol":"MYS","maxAssetPerBox":2}`, f.seller)
	set := result.Address
	require.NotEqual(t, common.Address{}, set)
	assert.Equal(t, []event.Type{event.BlindBoxSetCreated}, result.types())
	require.NoError(t, f.mem.SetApprovalForAll(nft, f.seller, set, true))

	base := "/blindboxes/" + set.Hex()
	mint := `{"to":"` + f.seller.Hex() + `","assets":[` +
		`{"contract":"` + nft.Hex() + `","tokenId":2},` +
		`{"contract":"` + nft.Hex() + `","tokenId":3},` +
		`{"contract":"` + nft.Hex() + `","tokenId":4}]}`
	result = f.command(http.MethodPost, base+"/mint", mint, f.seller)
	require.Equal(t, []uint64{1, 2}, result.Ids)
	assert.Equal(t, set, f.ownerOf(3))

	rec := f.do(http.MethodPost, base+"/mint", []byte(`{"to":"`+f.seller.Hex()+`","assets":[]}`), f.seller)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.command(http.MethodPut, base+"/approvals", `{"operator":"`+buyer.Hex()+`","approved":true}`, f.seller)
	f.command(http.MethodPost, base+"/transfer", `{"from":"`+f.seller.Hex()+`","tos":["`+buyer.Hex()+`"],"ids":[1]}`, buyer)

	result = f.command(http.MethodPost, base+"/open", `{"boxIds":[1]}`, buyer)
	assert.Equal(t, []event.Type{event.OpenBox, event.OpenBox}, result.types())
	assert.Equal(t, buyer, f.ownerOf(2))
	assert.Equal(t, buyer, f.ownerOf(3))

	rec = f.do(http.MethodPost, base+"/burn", []byte(`{"boxIds":[2],"assets":[{"contract":"`+nft.Hex()+`","tokenId":4}]}`), buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.command(http.MethodPost, base+"/burn", `{"boxIds":[2],"assets":[{"contract":"`+nft.Hex()+`","tokenId":4}]}`, f.seller)
	assert.Equal(t, f.seller, f.ownerOf(4))

	rec = f.do(http.MethodGet, base+"/boxes/2", nil, common.Address{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommands_Collections(t *testing.T) {
	f := newFixture(t)

	result := f.command(http.MethodPost, "/nfts", `{"name":"Creator Drop","symbol":"DROP"}`, creator)
	require.NotEqual(t, common.Address{}, result.Address)
	assert.Equal(t, []event.Type{event.NftCreated}, result.types())

	rec := f.do(http.MethodGet, "/nfts?owner="+creator.Hex(), nil, common.Address{})
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []common.Address
	decode(t, rec, &owned)
	assert.Equal(t, []common.Address{result.Address}, owned)

	rec = f.do(http.MethodGet, "/nfts?owner=nope", nil, common.Address{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/nfts", []byte(`{"name":"No Symbol"}`), creator)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommands_PriceFeed(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/prices/latest", nil, common.Address{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/prices", []byte(`{"answer":1500000000000}`), buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	result := f.command(http.MethodPost, "/prices", `{"answer":1500000000000}`, deployer)
	assert.Equal(t, []event.Type{event.PriceUpdated}, result.types())

	rec = f.do(http.MethodGet, "/prices/latest", nil, common.Address{})
	require.Equal(t, http.StatusOK, rec.Code)
	var round entity.PriceRound
	decode(t, rec, &round)
	assert.Equal(t, uint64(1), round.RoundId)
	assert.Equal(t, "1500000000000", round.Answer.String())
}
