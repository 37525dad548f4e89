package blob

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/pkg/utils/path"
)

const keyPrefix = "designs"

// NewObjectKey builds a key that is unique per upload:
// designs/<owner>/<viewType>/<unix millis>-<uuid>.<ext>
// Uniqueness is what makes the immutable cache directive safe.
func NewObjectKey(ownerID, viewType, ext string) string {
	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString() + "." + ext
	return path.JoinKey(keyPrefix, ownerID, viewType, name)
}
