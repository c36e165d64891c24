package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidPayload = errors.New("invalid payload")

const (
	addressPattern = `^(-?[0-9]+:[0-9a-fA-F]{64}|[A-Za-z0-9_+/-]{48})$`
	hashPattern    = `^[0-9a-fA-F]{64}$`
)

var mintSchema = mustSchema(`{
	"type": "object",
	"required": ["phase_index", "minter"],
	"additionalProperties": false,
	"properties": {
		"phase_index": {"type": "integer", "minimum": 0, "maximum": 4294967295},
		"minter": {"type": "string", "pattern": "` + addressPattern + `"},
		"payer": {"type": "string", "pattern": "` + addressPattern + `"},
		"merkle_proof": {"type": "array", "items": {"type": "string", "pattern": "` + hashPattern + `"}, "maxItems": 64},
		"allowlist_price": {"type": "integer", "minimum": 0},
		"allowlist_max_claims": {"type": "integer", "minimum": 0},
		"price": {"type": "integer", "minimum": 0},
		"recipients": {"type": "array", "items": {"type": "string"}, "maxItems": 5}
	}
}`)

var collectionSchema = mustSchema(`{
	"type": "object",
	"required": ["collection", "symbol", "treasury", "platform_fee"],
	"properties": {
		"collection": {"type": "string", "pattern": "` + addressPattern + `"},
		"name": {"type": "string", "maxLength": 64},
		"symbol": {"type": "string", "minLength": 1, "maxLength": 16},
		"max_supply": {"type": "integer", "minimum": 0},
		"treasury": {"type": "string", "pattern": "` + addressPattern + `"},
		"max_mints_per_wallet": {"type": "integer", "minimum": 0},
		"cosigner": {"type": "string"},
		"platform_fee": {"$ref": "#/definitions/fee"}
	},
	"definitions": {"fee": ` + feeDefinition + `}
}`)

var phaseSchema = mustSchema(`{
	"type": "object",
	"required": ["price_amount", "start_time"],
	"properties": {
		"price_amount": {"type": "integer", "minimum": 0},
		"price_token": {"type": "string", "maxLength": 80},
		"start_time": {"type": "string", "format": "date-time"},
		"end_time": {"type": "string", "format": "date-time"},
		"active": {"type": "boolean"},
		"max_mints_per_wallet": {"type": "integer", "minimum": 0},
		"max_mints_total": {"type": "integer", "minimum": 0},
		"is_private": {"type": "boolean"},
		"merkle_root": {"type": "string", "pattern": "` + hashPattern + `"}
	}
}`)

var feeSchema = mustSchema(feeDefinition)

const feeDefinition = `{
	"type": "object",
	"required": ["value", "is_flat", "recipients"],
	"properties": {
		"value": {"type": "integer", "minimum": 0},
		"is_flat": {"type": "boolean"},
		"recipients": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["address", "share"],
				"properties": {
					"address": {"type": "string"},
					"share": {"type": "integer", "minimum": 0, "maximum": 100}
				}
			}
		}
	}
}`

var creditSchema = mustSchema(`{
	"type": "object",
	"required": ["account", "amount"],
	"properties": {
		"account": {"type": "string", "pattern": "` + addressPattern + `"},
		"token": {"type": "string", "maxLength": 80},
		"amount": {"type": "integer", "minimum": 1}
	}
}`)

var phaseSwitchSchema = mustSchema(`{
	"type": "object",
	"required": ["active"],
	"properties": {"active": {"type": "boolean"}}
}`)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// validate checks payload against schema and reports every violation at once
func validate(schema *gojsonschema.Schema, payload []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}
	return nil
}
