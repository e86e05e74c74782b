package ledger

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handle func(req rpcRequest) rpcResponse) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := handle(req)
		resp.Id = req.Id
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRPC_OwnerOf(t *testing.T) {
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		require.Equal(t, "ledger_ownerOf", req.Method)
		result, _ := json.Marshal(alice)
		return rpcResponse{Result: result}
	})
	defer srv.Close()

	client, err := NewRPC(srv.URL, 5, false)
	require.NoError(t, err)

	owner, err := client.OwnerOf(context.Background(), nftContract, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, alice, owner)
}

func TestRPC_BalanceOf(t *testing.T) {
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Result: json.RawMessage(`1000000000`)}
	})
	defer srv.Close()

	client, err := NewRPC(srv.URL, 5, false)
	require.NoError(t, err)

	balance, err := client.BalanceOf(context.Background(), tokenAddr, bob)
	require.NoError(t, err)
	require.Equal(t, "1000000000", balance.String())
}

func TestRPC_ErrorMapsToFailureKind(t *testing.T) {
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &RPCError{Code: RPCInsufficientFunds, Message: "balance too low"}}
	})
	defer srv.Close()

	client, err := NewRPC(srv.URL, 5, false)
	require.NoError(t, err)

	err = client.Apply(context.Background(), []Op{TokenTransfer(bob, tokenAddr, bob, alice, big.NewInt(5))})
	require.Error(t, err)
	require.Equal(t, failure.InsufficientFunds, failure.KindOf(err))
}

func TestNewRPC_RequiresUrl(t *testing.T) {
	_, err := NewRPC("", 5, false)
	require.Error(t, err)
}
