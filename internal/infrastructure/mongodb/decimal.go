package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is stored as Decimal128 so that comparisons and sorts in queries are
// numeric and exact.

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode %s as decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode decimal128 %s: %w", v, err)
	}
	return d, nil
}

// decimalCodec converts several amounts and reports the first failure.
type decimalCodec struct {
	err error
}

func (c *decimalCodec) encode(d decimal.Decimal) primitive.Decimal128 {
	if c.err != nil {
		return primitive.Decimal128{}
	}
	v, err := toDecimal128(d)
	c.err = err
	return v
}

func (c *decimalCodec) decode(v primitive.Decimal128) decimal.Decimal {
	if c.err != nil {
		return decimal.Zero
	}
	d, err := fromDecimal128(v)
	c.err = err
	return d
}
