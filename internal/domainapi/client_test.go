package domainapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMedicines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/medicines", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"_id": "m1", "name": "Vitamin C", "quantity": 40}]}`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, time.Second).ListMedicines(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Vitamin C", items[0].Name)
	assert.Equal(t, 40, items[0].Quantity)
}

func TestListAcceptsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id": "v1", "name": "Covid-19"}]`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, time.Second).ListVaccines(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Covid-19", items[0].Name)
}

func TestCreateClassifiesDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message": "schedule already exists for this date"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).CreateMedicineSchedule(context.Background(), "tok", map[string]any{"medicineName": "Dolo"})
	require.Error(t, err)
	assert.Equal(t, ErrorDuplicate, KindOf(err))
}

func TestClassifyByMessageContent(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   ErrorKind
	}{
		{400, `{"message": "already exists"}`, ErrorDuplicate},
		{401, `{"message": "bad token"}`, ErrorUnauthorized},
		{400, `{"message": "validation failed on quantity"}`, ErrorValidation},
		{503, "gateway timeout", ErrorNetwork},
		{418, "teapot", ErrorUnknown},
	}
	for _, tt := range tests {
		ce := classify(tt.status, []byte(tt.body))
		assert.Equal(t, tt.want, ce.Kind, "%d %s", tt.status, tt.body)
	}
}

func TestNetworkErrorKind(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.ListMedicines(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, ErrorNetwork, KindOf(err))

	var ce *CallError
	require.True(t, errors.As(err, &ce))
	assert.Error(t, ce.Unwrap())
}

func TestGuidance(t *testing.T) {
	dup := Guidance(ErrorDuplicate, "medicine schedule")
	assert.Contains(t, dup, "Change the date")
	assert.Contains(t, dup, "Change the time")
	assert.Contains(t, dup, "cancel")

	assert.Contains(t, Guidance(ErrorNetwork, "vaccine"), "your answers are kept")
}

func TestCollidingFields(t *testing.T) {
	assert.Equal(t, []string{"startDate", "endDate"}, CollidingFields(ErrorDuplicate, "medicine schedule"))
	assert.Equal(t, []string{"date", "doseTime"}, CollidingFields(ErrorDuplicate, "vaccine schedule"))
	assert.Nil(t, CollidingFields(ErrorValidation, "medicine schedule"), "only duplicates reset fields")
}
