package asset_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/steffenpharai/dexpricer/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1 WETH = 1e18 wei
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	if oneWETH.IsZero() {
		t.Error("expected non-zero amount")
	}

	d := oneWETH.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	if oneWETH.String() != "1 WETH" {
		t.Errorf("expected '1 WETH', got '%s'", oneWETH.String())
	}
}

func TestAmount_OneUnit(t *testing.T) {
	one := asset.OneUnit(asset.USDC)

	want := big.NewInt(1_000000) // USDC has 6 decimals
	if one.Raw().Cmp(want) != 0 {
		t.Errorf("expected %s, got %s", want, one.Raw())
	}
}

func TestAmount_RoundTrip(t *testing.T) {
	// toHuman(toRaw(x, d)) == x must hold exactly for every supported scale.
	values := []string{"1", "2.5", "0.000001", "123456.789", "0.000000000001"}

	for d := uint8(0); d <= 18; d++ {
		a := asset.NewAsset(asset.NewNativeAssetID(999), "TST", d)
		for _, v := range values {
			x := decimal.RequireFromString(v)
			if int32(-x.Exponent()) > int32(d) {
				continue // x not representable at this scale
			}

			amount, err := asset.ParseDecimal(a, x)
			if err != nil {
				t.Fatalf("decimals=%d value=%s: unexpected error: %v", d, v, err)
			}

			if !amount.ToDecimal().Equal(x) {
				t.Errorf("decimals=%d value=%s: round trip yielded %s", d, v, amount.ToDecimal())
			}
		}
	}
}

func TestParseDecimal_TooManyDecimals(t *testing.T) {
	// USDC has 6 decimals, 1.1234567 carries 7
	d := decimal.RequireFromString("1.1234567")
	_, err := asset.ParseDecimal(asset.USDC, d)
	if err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestParseString(t *testing.T) {
	amount, err := asset.ParseString(asset.WETH, "1.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	if amount.Raw().Cmp(want) != 0 {
		t.Errorf("expected %s, got %s", want, amount.Raw())
	}

	if _, err := asset.ParseString(asset.WETH, "not-a-number"); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestAmount_Add(t *testing.T) {
	one := asset.NewAmount(asset.WETH, big.NewInt(1e18))
	two := asset.NewAmount(asset.WETH, big.NewInt(2e18))

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", sum.ToDecimal())
	}
}

func TestAmount_CannotMixAssets(t *testing.T) {
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))
	oneUSDC := asset.NewAmount(asset.USDC, big.NewInt(1e6))

	if _, err := oneWETH.Add(oneUSDC); err == nil {
		t.Error("expected error when adding different assets")
	}
	if _, err := oneWETH.Cmp(oneUSDC); err == nil {
		t.Error("expected error when comparing different assets")
	}
}

func TestAmount_BeyondUint64(t *testing.T) {
	// On-chain raw amounts routinely exceed 64-bit range.
	raw, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	amount := asset.NewAmount(asset.WETH, raw)

	if amount.Raw().Cmp(raw) != 0 {
		t.Errorf("raw value not preserved: %s", amount.Raw())
	}

	want := decimal.RequireFromString("123456789012.34567890123456789")
	if !amount.ToDecimal().Equal(want) {
		t.Errorf("expected %s, got %s", want, amount.ToDecimal())
	}
}
