package paymob

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CallbackResult carries the identifiers and outcome extracted from a
// provider callback. Absent or malformed fields default (false, "", 0, nil)
// instead of failing the whole delivery.
type CallbackResult struct {
	Success         bool
	TransactionID   string
	ProviderOrderID int64
	MerchantOrderID string
	AmountCents     *int64
}

// Amount converts cents to major currency units, or nil when the callback
// carried no usable amount.
func (r CallbackResult) Amount() *float64 {
	if r.AmountCents == nil {
		return nil
	}
	amount := float64(*r.AmountCents) / 100
	return &amount
}

// ParseCallback decodes a provider notification. Paymob delivers either
// {"obj": {...}} or the bare transaction object; both are accepted.
// An HMAC check, if ever enabled, belongs in front of this call on the raw
// body.
func ParseCallback(data []byte) CallbackResult {
	body := data

	var wrapper struct {
		Obj json.RawMessage `json:"obj"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if len(wrapper.Obj) > 0 && !bytes.Equal(wrapper.Obj, []byte("null")) {
			body = wrapper.Obj
		}
	}

	var obj callbackObject
	_ = json.Unmarshal(body, &obj)

	merchantOrderID := string(obj.Order.MerchantOrderID)
	if merchantOrderID == "" {
		merchantOrderID = string(obj.MerchantOrderID)
	}

	return CallbackResult{
		Success:         bool(obj.Success),
		TransactionID:   string(obj.ID),
		ProviderOrderID: int64(obj.Order.ID),
		MerchantOrderID: merchantOrderID,
		AmountCents:     obj.AmountCents.value,
	}
}

type callbackObject struct {
	Success         flexBool      `json:"success"`
	ID              flexString    `json:"id"`
	AmountCents     optionalCents `json:"amount_cents"`
	Order           callbackOrder `json:"order"`
	MerchantOrderID flexString    `json:"merchant_order_id"`
}

type callbackOrder struct {
	ID              flexInt64  `json:"id"`
	MerchantOrderID flexString `json:"merchant_order_id"`
}

// flexBool is true only for JSON true or the string "true".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexBool(strings.EqualFold(s, "true"))
		return nil
	}
	*f = false
	return nil
}

// flexString accepts JSON strings and numbers; anything else becomes "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexInt64 accepts JSON numbers and numeric strings; anything else is 0.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	var i int64
	if err := json.Unmarshal(b, &i); err == nil {
		*f = flexInt64(i)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt64(int64(math.Round(n)))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			*f = flexInt64(parsed)
			return nil
		}
	}
	*f = 0
	return nil
}

// optionalCents keeps amount_cents only when it is a JSON number.
type optionalCents struct {
	value *int64
}

func (o *optionalCents) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		o.value = nil
		return nil
	}
	cents := int64(math.Round(n))
	o.value = &cents
	return nil
}
