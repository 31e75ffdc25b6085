package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
)

func TestProvidedApprovals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chain/get_table_rows", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, "eosio.msig", gjson.GetBytes(body, "code").String())
		assert.Equal(t, "alice", gjson.GetBytes(body, "scope").String())
		assert.Equal(t, "approvals2", gjson.GetBytes(body, "table").String())
		assert.Equal(t, "relayfund1", gjson.GetBytes(body, "lower_bound").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows":[{"version":1,"proposal_name":"relayfund1","provided_approvals":[{"level":{"actor":"a"}},{"level":{"actor":"b"}}]}],"more":false}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIURL: srv.URL})
	require.NoError(t, err)

	lookup := NewMsigApprovals(client, "")
	count, present, err := lookup.ProvidedApprovals(context.Background(), "alice", "relayfund1")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 2, count)
}

func TestProvidedApprovalsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":[],"more":false}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIURL: srv.URL})
	require.NoError(t, err)

	count, present, err := NewMsigApprovals(client, "").ProvidedApprovals(context.Background(), "alice", "ghost")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, 0, count)
}

func TestPushActionRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"what":"unsatisfied authorization"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIURL: srv.URL})
	require.NoError(t, err)

	err = client.PushAction(context.Background(), Action{Account: "eosio.token", Name: "transfer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsatisfied authorization")
}

func TestActionsDispatch(t *testing.T) {
	received := make(chan []byte, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/relay/push_action", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received <- body
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIURL: srv.URL})
	require.NoError(t, err)

	dispatcher := NewDispatcher(client, 8, nil)
	require.NoError(t, dispatcher.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = dispatcher.Stop(stopCtx)
	}()

	actions := NewActions(dispatcher, DefaultAccounts())
	ctx := context.Background()
	eos := asset.Symbol{Code: "EOS", Precision: 4}

	require.NoError(t, actions.ForwardTransfer(ctx, asset.New(50000, eos), "Burned from BFP contract"))
	require.NoError(t, actions.ForwardSwap(ctx, asset.New(20000, asset.Symbol{Code: "A", Precision: 4}), "Burned from BFP contract via vaulta"))
	require.NoError(t, actions.ReturnRAM(ctx, "bob", 40))

	want := []struct {
		account string
		name    string
		check   func(t *testing.T, data gjson.Result)
	}{
		{"eosio.token", "transfer", func(t *testing.T, data gjson.Result) {
			assert.Equal(t, "bfp", data.Get("from").String())
			assert.Equal(t, "eosio.fees", data.Get("to").String())
			assert.Equal(t, "5.0000 EOS", data.Get("quantity").String())
			assert.Equal(t, "Burned from BFP contract", data.Get("memo").String())
		}},
		{"core.vaulta", "swapto", func(t *testing.T, data gjson.Result) {
			assert.Equal(t, "eosio.fees", data.Get("to").String())
			assert.Equal(t, "2.0000 A", data.Get("quantity").String())
			assert.Equal(t, "Burned from BFP contract via vaulta", data.Get("memo").String())
		}},
		{"eosio", "ramtransfer", func(t *testing.T, data gjson.Result) {
			assert.Equal(t, "bob", data.Get("to").String())
			assert.Equal(t, int64(40), data.Get("bytes").Int())
			assert.Equal(t, "Return RAM from BFP contract", data.Get("memo").String())
		}},
	}

	for _, w := range want {
		select {
		case body := <-received:
			var action Action
			require.NoError(t, json.Unmarshal(body, &action))
			assert.Equal(t, w.account, action.Account)
			assert.Equal(t, w.name, action.Name)
			assert.Equal(t, "bfp", action.Actor)
			w.check(t, gjson.ParseBytes(action.Data))
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s::%s", w.account, w.name)
		}
	}
}

func TestIgnoredSenders(t *testing.T) {
	got := DefaultAccounts().IgnoredSenders()
	assert.Equal(t, []string{"eosio.fees", "core.vaulta", "eosio.ram", "eosio.stake"}, got)
}
