package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage/memory"
)

func TestLoadDefault(t *testing.T) {
	companies, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, companies)

	bySlug := map[string]models.Company{}
	for _, c := range companies {
		bySlug[c.Slug] = c
	}
	favor, ok := bySlug["favor"]
	require.True(t, ok)
	assert.Equal(t, []string{"TX"}, favor.Regions)
	assert.True(t, favor.AvgHourlyPay.Equal(decimal.RequireFromString("16.50")))
	assert.True(t, favor.Active)
	assert.Empty(t, bySlug["rover"].VehicleTypes)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name":   "companies:\n  - slug: x\n    category: delivery\n    pay_model: hourly\n",
		"bad category":   "companies:\n  - name: X\n    slug: x\n    category: space\n    pay_model: hourly\n",
		"bad pay model":  "companies:\n  - name: X\n    slug: x\n    category: delivery\n    pay_model: tips\n",
		"bad pay amount": "companies:\n  - name: X\n    slug: x\n    category: delivery\n    pay_model: hourly\n    avg_hourly_pay: lots\n",
		"duplicate slug": "companies:\n  - {name: A, slug: x, category: task, pay_model: hourly}\n  - {name: B, slug: x, category: task, pay_model: hourly}\n",
		"empty":          "companies: []\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "companies:\n  - {name: Local Eats, slug: local-eats, category: delivery, pay_model: per-delivery, regions: [ca], inactive: true}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	companies, err := Load(path)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, []string{"CA"}, companies[0].Regions)
	assert.False(t, companies[0].Active)

	store := memory.New()
	n, err := Seed(context.Background(), store, companies, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	companies[0].Name = "Local Eats Co"
	_, err = Seed(context.Background(), store, companies, zap.NewNop())
	require.NoError(t, err)

	all, err := store.ListCompanies(context.Background(), models.CompanyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Local Eats Co", all[0].Name)
}
