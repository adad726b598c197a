package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyndhavamahesh345/LexGuard/internal/api"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
)

const labelled = `description,amount,date,counterparty,type_hint,frequency,expected,expected_tax
Office rent for March,25000,2024-06-01,Sharma Estates,,monthly,Non-Compliant,2500
Printer paper,500,,,,one-time,Compliant,
Consulting fee for audit,3000,,,,monthly,Non-Compliant,300
Consulting fee for audit,2000,,,,monthly,Non-Compliant,
`

func TestParseCSV(t *testing.T) {
	rows, err := parseCSV(strings.NewReader(labelled), 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, domain.FrequencyMonthly, rows[0].Input.Frequency)
	assert.Equal(t, "2024-06-01", rows[0].Input.Date.String())
	assert.Equal(t, "2500", rows[0].ExpectedTax.String())
	assert.Equal(t, domain.StatusCompliant, rows[1].Expected)
	assert.Nil(t, rows[1].ExpectedTax)

	limited, err := parseCSV(strings.NewReader(labelled), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"MissingColumn", "description,amount\nrent,1\n"},
		{"BadAmount", "description,amount,expected\nrent,lots,Compliant\n"},
		{"BadLabel", "description,amount,expected\nrent,1,maybe\n"},
		{"BadDate", "description,amount,date,expected\nrent,1,June,Compliant\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCSV(strings.NewReader(tt.csv), 0)
			assert.Error(t, err)
		})
	}
}

func TestReplay(t *testing.T) {
	svc := service.New(domain.EvaluationConfig{}, domain.CacheConfig{}, service.Deps{Book: rules.MustDefault()})
	srv := api.NewServer(domain.ServerConfig{}, api.Deps{Service: svc}, "test")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	rows, err := parseCSV(strings.NewReader(labelled), 0)
	require.NoError(t, err)

	c := newClient(ts.URL+"/", "tenant-001")
	require.NoError(t, c.health(context.Background()))

	var seen int
	m := replay(context.Background(), c, rows, 2, func(rowResult) { seen++ })

	assert.Equal(t, 4, seen)
	assert.Equal(t, 2, m.TruePositives)
	assert.Equal(t, 1, m.TrueNegatives)
	assert.Equal(t, 1, m.FalseNegatives, "24000 a year stays below the 194J threshold")
	assert.Zero(t, m.FalsePositives)
	assert.Zero(t, m.TaxMismatches)
	assert.Zero(t, m.Errors)
	assert.InDelta(t, 0.75, m.Accuracy(), 1e-9)
	assert.InDelta(t, 1.0, m.Precision(), 1e-9)

	var out bytes.Buffer
	printResults(&out, m, 0)
	assert.Contains(t, out.String(), "Precision:      1.0000")
}
