// Package alert turns inbound webhook payloads into trade intents.
//
// Three shapes are understood: a JSON object with direct fields, a JSON object
// whose single "message" string holds "key: value; key: value" pairs, and the
// delimited form sent as a raw text body (optionally as a JSON string literal).
package alert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
)

const (
	keySymbol  = "symbol"
	keyAction  = "action"
	keyAmount  = "amount"
	keyMessage = "message"
)

// keyAliases maps every accepted trade key to its logical name.
var keyAliases = map[string]string{
	"symbol": keySymbol,
	"ticker": keySymbol,
	"pair":   keySymbol,
	"action": keyAction,
	"amount": keyAmount,
}

// informationalKeys are accepted and ignored. TradingView templates tend to carry them.
var informationalKeys = map[string]struct{}{
	"price":     {},
	"time":      {},
	"timestamp": {},
	"comment":   {},
	"exchange":  {},
	"interval":  {},
	"strategy":  {},
}

// rawIntent holds the logical fields before conversion.
type rawIntent struct {
	Symbol string `validate:"required,max=32,printascii,excludesall=;:"`
	Action string `validate:"required,oneof=buy sell"`
	Amount string `validate:"required,max=64"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func parseErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ports.ErrParse, fmt.Sprintf(format, args...))
}

// Parse decodes a raw request body into a TradeIntent.
func Parse(body []byte) (domain.TradeIntent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return domain.TradeIntent{}, parseErr("empty body")
	}

	switch trimmed[0] {
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			return domain.TradeIntent{}, parseErr("malformed JSON object: %v", err)
		}
		if dec.More() {
			return domain.TradeIntent{}, parseErr("trailing data after JSON object")
		}
		return ParseFields(obj)
	case '"':
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return domain.TradeIntent{}, parseErr("malformed JSON string: %v", err)
		}
		return ParseMessage(msg)
	case '[':
		return domain.TradeIntent{}, parseErr("JSON arrays are not accepted")
	default:
		return ParseMessage(string(trimmed))
	}
}

// ParseFields builds an intent from a decoded JSON object.
func ParseFields(obj map[string]interface{}) (domain.TradeIntent, error) {
	if len(obj) == 0 {
		return domain.TradeIntent{}, parseErr("empty object")
	}

	collected := make(map[string]string, 3)
	var (
		message    string
		hasMessage bool
	)
	for key, value := range obj {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == keyMessage {
			if hasMessage {
				return domain.TradeIntent{}, parseErr("duplicate message field")
			}
			s, ok := value.(string)
			if !ok {
				return domain.TradeIntent{}, parseErr("message must be a string")
			}
			message, hasMessage = s, true
			continue
		}
		if _, ok := informationalKeys[name]; ok {
			continue
		}
		logical, ok := keyAliases[name]
		if !ok {
			return domain.TradeIntent{}, parseErr("unknown field %q", key)
		}
		s, err := scalarString(value)
		if err != nil {
			return domain.TradeIntent{}, parseErr("field %q: %v", key, err)
		}
		if err := collect(collected, logical, s); err != nil {
			return domain.TradeIntent{}, err
		}
	}

	if hasMessage {
		if len(collected) > 0 {
			return domain.TradeIntent{}, parseErr("message cannot be combined with direct trade fields")
		}
		return ParseMessage(message)
	}
	return build(collected)
}

// ParseMessage builds an intent from the "key: value; key: value" form.
func ParseMessage(msg string) (domain.TradeIntent, error) {
	collected := make(map[string]string, 3)
	for _, part := range strings.Split(msg, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, ":")
		if !found {
			return domain.TradeIntent{}, parseErr("segment %q is not key: value", part)
		}
		name := strings.ToLower(strings.TrimSpace(key))
		if _, ok := informationalKeys[name]; ok {
			continue
		}
		logical, ok := keyAliases[name]
		if !ok {
			return domain.TradeIntent{}, parseErr("unknown key %q", strings.TrimSpace(key))
		}
		if err := collect(collected, logical, strings.TrimSpace(value)); err != nil {
			return domain.TradeIntent{}, err
		}
	}
	return build(collected)
}

// collect records a logical field, failing when it was already set to something else.
func collect(into map[string]string, logical, value string) error {
	if prev, ok := into[logical]; ok && prev != value {
		return parseErr("conflicting values for %s: %q and %q", logical, prev, value)
	}
	into[logical] = value
	return nil
}

// scalarString accepts JSON strings and numbers only.
func scalarString(v interface{}) (string, error) {
	switch v.(type) {
	case string, json.Number:
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case nil:
		return "", fmt.Errorf("null value")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func build(fields map[string]string) (domain.TradeIntent, error) {
	raw := rawIntent{
		Symbol: fields[keySymbol],
		Action: strings.ToLower(fields[keyAction]),
		Amount: fields[keyAmount],
	}
	if err := validate.Struct(raw); err != nil {
		return domain.TradeIntent{}, parseErr("%s", describeValidation(err))
	}

	side, err := domain.ParseOrderSide(raw.Action)
	if err != nil {
		return domain.TradeIntent{}, parseErr("%v", err)
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return domain.TradeIntent{}, parseErr("amount %q is not a number", raw.Amount)
	}
	if !amount.IsPositive() {
		return domain.TradeIntent{}, parseErr("amount must be positive, got %s", raw.Amount)
	}
	if err := domain.CheckMagnitude(amount); err != nil {
		return domain.TradeIntent{}, parseErr("amount out of range: %v", err)
	}

	return domain.TradeIntent{
		Symbol: raw.Symbol,
		Action: side,
		Amount: amount,
	}, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, "missing "+field)
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be buy or sell, got %q", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is malformed (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
