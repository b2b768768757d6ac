package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"lamports":   uint64(5000),
					"owner":      TokenProgramID,
					"data":       []string{data, "base64"},
					"executable": false,
					"rentEpoch":  uint64(300),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	info, err := client.GetAccountInfo(ctx, "somepubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info, got nil")
	}

	if info.Lamports != 5000 {
		t.Errorf("expected lamports 5000, got %d", info.Lamports)
	}

	if info.Owner != TokenProgramID {
		t.Errorf("expected owner %s, got %s", TokenProgramID, info.Owner)
	}

	if len(info.Data) != 4 || info.Data[0] != 1 {
		t.Errorf("unexpected account data: %v", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": nil},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for missing account, got %+v", info)
	}
}

func TestHTTPClient_GetProgramAccounts(t *testing.T) {
	data := base64.StdEncoding.EncodeToString(make([]byte, 16))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getProgramAccounts" {
			t.Errorf("expected method getProgramAccounts, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{
					"pubkey": "acc1",
					"account": map[string]interface{}{
						"lamports": uint64(100),
						"owner":    "prog1",
						"data":     []string{data, "base64"},
					},
				},
				{
					"pubkey": "acc2",
					"account": map[string]interface{}{
						"lamports": uint64(200),
						"owner":    "prog1",
						"data":     []string{data, "base64"},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	accounts, err := client.GetProgramAccounts(context.Background(), "prog1", &ProgramAccountsOpts{DataSize: 16})
	if err != nil {
		t.Fatalf("GetProgramAccounts: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}

	if accounts[0].Pubkey != "acc1" {
		t.Errorf("expected pubkey acc1, got %s", accounts[0].Pubkey)
	}

	if len(accounts[1].Account.Data) != 16 {
		t.Errorf("expected 16 data bytes, got %d", len(accounts[1].Account.Data))
	}
}

func TestHTTPClient_GetTokenAccountBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"amount":   "1050000000",
					"decimals": 6,
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	bal, err := client.GetTokenAccountBalance(context.Background(), "tokenacc")
	if err != nil {
		t.Fatalf("GetTokenAccountBalance: %v", err)
	}

	if bal.Amount != 1050000000 {
		t.Errorf("expected amount 1050000000, got %d", bal.Amount)
	}
	if bal.Decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", bal.Decimals)
	}
}

func TestHTTPClient_SendTransaction_LedgerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: insufficient collateral",
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.SendTransaction(context.Background(), []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_RetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{"blockhash": "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(10*time.Millisecond))

	hash, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if hash == "" {
		t.Error("expected non-empty blockhash")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}
