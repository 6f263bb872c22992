package zru_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zrupay/zru-go/pkg/notification"
	"github.com/zrupay/zru-go/pkg/resource"
	"github.com/zrupay/zru-go/pkg/zru"
)

const (
	testKey    = "fd1e7e20a676"
	testSecret = "s3cr3t"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*zru.Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := zru.New(testKey, testSecret, zru.Options{
		BaseURL:      ts.URL + "/api/v1",
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client, ts
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := zru.New("", testSecret, zru.Options{})
	assert.Error(t, err)
	_, err = zru.New(testKey, "", zru.Options{})
	assert.Error(t, err)
}

func TestRetrieve(t *testing.T) {
	var gotPath, gotKey, gotSecret, gotRequestID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("key")
		gotSecret = r.Header.Get("secret")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c832","status":"D","pay_url":"https://pay.example/c832"}`)
	})

	tx, err := client.RetrieveTransaction(context.Background(), "c832")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/transaction/c832/", gotPath)
	assert.Equal(t, testKey, gotKey)
	assert.Equal(t, testSecret, gotSecret)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "c832", tx.ID())
	assert.True(t, tx.IsPaid())
	assert.Equal(t, "https://pay.example/c832", tx.PayURL())
}

func TestRetrieveKeepsIDInOneSegment(t *testing.T) {
	var gotPaths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x"}`)
	})

	_, err := client.Retrieve(context.Background(), resource.KindSale, "../plan?limit=1")
	require.NoError(t, err)
	_, err = client.Retrieve(context.Background(), resource.KindSale, "..")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/sale/..%2Fplan%3Flimit=1/",
		"/api/v1/sale/%2E%2E/",
	}, gotPaths)
}

func TestRetrieveMissingID(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := client.Retrieve(context.Background(), resource.KindSale, "")
	assert.ErrorIs(t, err, zru.ErrMissingID)
	assert.Zero(t, atomic.LoadInt32(&hits))

	_, err = client.Retrieve(context.Background(), resource.Kind("invoice"), "x")
	assert.Error(t, err)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, zru.ErrInvalidRequest},
		{http.StatusNotFound, zru.ErrNotFound},
		{http.StatusUnauthorized, zru.ErrUnauthorized},
		{http.StatusForbidden, zru.ErrUnauthorized},
	}
	for _, c := range cases {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			io.WriteString(w, `{"detail":"nope"}`)
		})

		_, err := client.Retrieve(context.Background(), resource.KindSale, "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, c.want)

		var apiErr *zru.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, c.status, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "nope")
	}
}

func TestRetryOnServerError(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"id":"s1"}`)
	})

	obj, err := client.Retrieve(context.Background(), resource.KindSale, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", obj.ID())
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRetryGivesUp(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Retrieve(context.Background(), resource.KindSale, "s1")
	var apiErr *zru.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestNoRetryOnClientErrorOrWrite(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Retrieve(context.Background(), resource.KindSale, "s1")
	assert.ErrorIs(t, err, zru.ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = client.Tax.Create(context.Background(), map[string]any{"name": "Tax"})
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"s1"}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Retrieve(ctx, resource.KindSale, "s1")
	assert.Error(t, err)
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	var methods, paths []string
	var bodies []map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body["id"] = "59ba"
		json.NewEncoder(w).Encode(body)
	})
	ctx := context.Background()

	product := resource.NewObject(resource.KindProduct, map[string]any{"name": "Product", "price": 5})
	require.NoError(t, client.Product.Save(ctx, product))
	assert.Equal(t, "59ba", product.ID())

	product.Set("price", 10)
	require.NoError(t, client.Product.Save(ctx, product))

	assert.Equal(t, []string{http.MethodPost, http.MethodPatch}, methods)
	assert.Equal(t, []string{"/api/v1/product/", "/api/v1/product/59ba/"}, paths)
	assert.Equal(t, float64(10), bodies[1]["price"])

	err := client.Tax.Save(ctx, product)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	var method, path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Tax.Delete(context.Background(), "t1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/v1/tax/t1/", path)

	assert.ErrorIs(t, client.Tax.Delete(context.Background(), ""), zru.ErrMissingID)
}

func TestSaleActions(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		io.WriteString(w, `{"id":"d1bb","action":"C"}`)
	})
	ctx := context.Background()

	sale, err := client.CaptureSale(ctx, "d1bb")
	require.NoError(t, err)
	assert.Equal(t, "C", sale.Action())
	_, err = client.RefundSale(ctx, "d1bb")
	require.NoError(t, err)
	_, err = client.VoidSale(ctx, "d1bb")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /api/v1/sale/d1bb/capture/",
		"POST /api/v1/sale/d1bb/refund/",
		"POST /api/v1/sale/d1bb/void/",
	}, paths)
}

func TestListAndPaginate(t *testing.T) {
	var ts *httptest.Server
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/plan/", r.URL.Path)
		switch r.URL.Query().Get("page") {
		case "":
			assert.Equal(t, "EUR", r.URL.Query().Get("currency"))
			io.WriteString(w, `{"count":3,"next":"`+ts.URL+`/api/v1/plan/?page=2","previous":null,"results":[{"id":"p1"},{"id":"p2"}]}`)
		case "2":
			io.WriteString(w, `{"count":3,"next":null,"previous":"`+ts.URL+`/api/v1/plan/","results":[{"id":"p3"}]}`)
		}
	})
	ctx := context.Background()

	first, err := client.Plan.List(ctx, map[string][]string{"currency": {"EUR"}})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Count())
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	results, err := first.Results()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].ID())
	assert.Equal(t, resource.KindPlan, results[0].Kind())

	prev, err := first.Previous(ctx)
	assert.NoError(t, err)
	assert.Nil(t, prev)

	second, err := first.Next(ctx)
	require.NoError(t, err)
	assert.False(t, second.HasNext())
	results, err = second.Results()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p3", results[0].ID())

	last, err := second.Next(ctx)
	assert.NoError(t, err)
	assert.Nil(t, last)
}

func TestClientResolvesNotification(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		io.WriteString(w, `{"id":"ok"}`)
	})
	ctx := context.Background()

	payload := notification.Payload{
		"id":      "c8325bb3-c24e-4c0c-b0ff-14fe89bf9f1f",
		"status":  "D",
		"type":    "P",
		"sale_id": "d1bb7082-7a97-48c6-893d-4d5febcd463b",
	}
	payload["signature"] = notification.Sign(payload, testSecret)

	n := client.Notification(payload)
	assert.True(t, n.CheckSignature())
	assert.True(t, n.IsStatusDone())

	tx, err := n.Transaction(ctx)
	require.NoError(t, err)
	require.NotNil(t, tx)
	sale, err := n.Sale(ctx)
	require.NoError(t, err)
	require.NotNil(t, sale)

	assert.Equal(t, []string{
		"/api/v1/transaction/c8325bb3-c24e-4c0c-b0ff-14fe89bf9f1f/",
		"/api/v1/sale/d1bb7082-7a97-48c6-893d-4d5febcd463b/",
	}, paths)
}

func TestClientNotificationPropagatesNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	n := client.Notification(notification.Payload{"id": "gone", "type": "S"})
	sub, err := n.Subscription(context.Background())
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, zru.ErrNotFound)
}
