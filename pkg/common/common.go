package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a cluster-unique int64 identifier.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a cluster-unique identifier string.
func UUID() string {
	return snowflakeNode.Generate().String()
}

// PaymentReference builds a unique payment reference of the form
// ECI<yyyymmdd>-<8 uppercase hex chars>, e.g. ECI20250910-9F3A01BC.
func PaymentReference(at time.Time) string {
	return fmt.Sprintf("ECI%s-%s", at.Format("20060102"), strings.ToUpper(randomHex(4)))
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived suffix rather than panic in a request path
		v := big.NewInt(time.Now().UnixNano())
		return hex.EncodeToString(v.Bytes())[:n*2]
	}
	return hex.EncodeToString(buf)
}
