package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "250.00", "12.3456", "-7.5", "1000000"} {
		d := decimal.RequireFromString(s)
		back := Decimal(Numeric(d))
		require.Truef(t, d.Equal(back), "%s became %s", s, back)
	}
}

func TestNullableNumeric(t *testing.T) {
	require.False(t, NullableNumeric(nil).Valid)
	require.Nil(t, NullableDecimal(pgtype.Numeric{}))

	price := decimal.RequireFromString("49.90")
	got := NullableDecimal(NullableNumeric(&price))
	require.NotNil(t, got)
	require.True(t, price.Equal(*got))
}

func TestDecimalOfNullIsZero(t *testing.T) {
	require.True(t, Decimal(pgtype.Numeric{}).IsZero())
}
