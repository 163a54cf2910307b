package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ticketCode builds "<prefix>-<millis mod 100000>-<9 random hex chars>",
// for example TK-04217-9F3A1C2B7.
func ticketCode(prefix string, now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:9]
	return fmt.Sprintf("%s-%05d-%s", prefix, now.UnixMilli()%100000, random)
}
