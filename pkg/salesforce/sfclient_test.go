package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates a Client backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	require.NotNil(t, sf)

	return NewClient(sf), ts
}

func TestSFClient_CustomerAccounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{
				{
					"attributes":               map[string]any{"type": "Account"},
					"Id":                       "001xx",
					"Name":                     "Northwind Traders",
					"Customer_Tier__c":         "enterprise",
					"Annual_Contract_Value__c": 120000,
					"Engagement_Score__c":      45,
					"Renewal_Date__c":          "2026-03-22",
				},
			},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	accounts, err := client.CustomerAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "001xx", accounts[0].ID)
	assert.Equal(t, "Northwind Traders", accounts[0].Name)
	assert.Equal(t, "enterprise", accounts[0].Tier)
	assert.InDelta(t, 120000, accounts[0].ContractValue, 0.001)
	assert.Equal(t, "2026-03-22", accounts[0].RenewalDate)
}

func TestSFClient_CustomerAccounts_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	_, err := client.CustomerAccounts(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sf: list customer accounts")
}

func TestSFClient_Describe(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/sobjects/Competitor_Exposure__c/describe")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":  "Competitor_Exposure__c",
			"label": "Competitor Exposure",
			"fields": []map[string]any{
				{"name": "Id", "label": "Record ID", "type": "id", "length": 18, "updateable": false},
				{"name": "Risk_Tag__c", "label": "Risk Tag", "type": "picklist", "length": 255, "updateable": true},
			},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	desc, err := client.Describe(context.Background(), "Competitor_Exposure__c")
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, "Competitor Exposure", desc.Label)
	require.Len(t, desc.Fields, 2)
	assert.True(t, desc.HasField("risk_tag__c"))
	assert.False(t, desc.HasField("Calls_Mentioned__c"))
}

func TestSFClient_Describe_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "sobject not found", "errorCode": "NOT_FOUND"},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	_, err := client.Describe(context.Background(), "NonExistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sf: describe")
}
