package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{name: "whole ringgit", input: "15", want: 1500},
		{name: "one decimal", input: "15.5", want: 1550},
		{name: "two decimals", input: "10.05", want: 1005},
		{name: "currency prefix", input: "RM 10.00", want: 1000},
		{name: "rounds to sen", input: "0.005", want: 1},
		{name: "negative", input: "-5", want: -500},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "at the ceiling", input: "100000000", want: Max},
		{name: "beyond the ceiling", input: "100000000.01", wantErr: true},
		{name: "beyond int64", input: "100000000000000000000", wantErr: true},
		{name: "exponent beyond int64", input: "1e20", wantErr: true},
		{name: "negative beyond the ceiling", input: "-100000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "15.00", RM(15).String())
	assert.Equal(t, "0.05", FromSen(5).String())
	assert.Equal(t, "-15.00", RM(15).Neg().String())
}

func TestAmount_Arithmetic(t *testing.T) {
	assert.Equal(t, RM(15), RM(15).Neg().Abs())
	assert.Equal(t, RM(30), Sum(RM(20), RM(5), RM(5)))
	assert.True(t, RM(1).IsPositive())
	assert.True(t, RM(1).Neg().IsNegative())
	assert.Equal(t, Zero, Sum())
}

func TestAmount_Decimal(t *testing.T) {
	assert.True(t, decimal.RequireFromString("12.34").Equal(FromSen(1234).Decimal()))
	a, err := FromDecimal(decimal.RequireFromString("12.34"))
	require.NoError(t, err)
	assert.Equal(t, FromSen(1234), a)

	_, err = FromDecimal(decimal.RequireFromString("92233720368547758.08"))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestAmount_Mul(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		qty     int64
		want    Amount
		wantErr bool
	}{
		{name: "simple", amount: RM(5), qty: 2, want: RM(10)},
		{name: "zero quantity", amount: RM(5), qty: 0, want: Zero},
		{name: "zero amount", amount: Zero, qty: 1 << 62, want: Zero},
		{name: "negative quantity", amount: RM(5), qty: -3, want: RM(-15)},
		{name: "product at the ceiling", amount: RM(1_000_000), qty: 100, want: Max},
		{name: "product beyond the ceiling", amount: RM(1_000_000), qty: 101, wantErr: true},
		{name: "would wrap int64", amount: FromSen(5_000_000_000_000_000), qty: 2, wantErr: true},
		{name: "min int64 quantity", amount: FromSen(1), qty: -1 << 63, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.amount.Mul(tt.qty)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_InRange(t *testing.T) {
	assert.True(t, Max.InRange())
	assert.True(t, Max.Neg().InRange())
	assert.False(t, (Max + 1).InRange())
	assert.False(t, (-Max - 1).InRange())
}

func TestAmount_JSON(t *testing.T) {
	type payload struct {
		Fare Amount  `json:"fare"`
		Fee  *Amount `json:"fee,omitempty"`
	}

	b, err := json.Marshal(payload{Fare: RM(30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fare":30.00}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"fare": 12.5, "fee": "15"}`), &p))
	assert.Equal(t, FromSen(1250), p.Fare)
	require.NotNil(t, p.Fee)
	assert.Equal(t, RM(15), *p.Fee)

	require.Error(t, json.Unmarshal([]byte(`{"fare": "twelve"}`), &p))
	require.ErrorIs(t, json.Unmarshal([]byte(`{"fare": 1e20}`), &p), ErrOutOfRange)
}

func TestAmount_Decode(t *testing.T) {
	var a Amount
	require.NoError(t, a.Decode("10.00"))
	assert.Equal(t, RM(10), a)
	require.Error(t, a.Decode("ten"))
}
