package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex pay_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short id with a prefix, e.g. `ord_xYZ12A8Q`.
// Used for the internal order id handed to the gateway so that merchant
// numbering schemes never leak upstream.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	return fmt.Sprintf("%s%s", prefix, id)
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_PAYMENT          = "pay"
	UUID_PREFIX_REFUND           = "ref"
	UUID_PREFIX_MERCHANT         = "mer"
	UUID_PREFIX_WEBHOOK_INBOUND  = "whin"
	UUID_PREFIX_WEBHOOK_DELIVERY = "whout"
	UUID_PREFIX_WEBHOOK_EVENT    = "webhook"

	SHORT_ID_PREFIX_ORDER = "ord_"
)
