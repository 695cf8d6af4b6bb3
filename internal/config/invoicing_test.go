package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "system_maintenance", CategoryKey("System Maintenance"))
	assert.Equal(t, "graphic_design", CategoryKey("Graphic  Design"))
	assert.Equal(t, "other", CategoryKey("Other"))
}

func TestDefaultInvoicingConfig(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	require.NoError(t, validateInvoicingConfig(cfg))

	assert.True(t, cfg.HasCategory("milestone_payment"))
	assert.False(t, cfg.HasCategory("Milestone Payment"))
	assert.True(t, cfg.HasCurrency("lkr"))
	assert.True(t, cfg.HasPaymentMethod("payhere"))

	cur, ok := cfg.Currency("AUD")
	require.True(t, ok)
	assert.Equal(t, "A$", cur.Symbol)
}

func TestValidateInvoicingConfigRequiresSequence(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	cfg.NumberTemplate = "{PREFIX}-{ABBR}"
	assert.Error(t, validateInvoicingConfig(cfg))
}

func TestStaticHolder(t *testing.T) {
	holder := NewStaticInvoicingConfigHolder(InvoicingConfig{
		NumberTemplate: DefaultNumberTemplate,
		Categories:     []Category{{Label: "Retainer Fee"}},
	})
	assert.True(t, holder.Get().HasCategory("retainer_fee"))
}
