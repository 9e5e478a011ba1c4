package mongodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pageCursor is the keyset position after the last row of a page.
type pageCursor struct {
	CreatedAt int64  `json:"t"` // unix millis, matching the store's precision
	ID        string `json:"i"`
}

func encodeCursor(d *listingDocument) string {
	raw, _ := json.Marshal(pageCursor{CreatedAt: d.CreatedAt.UnixMilli(), ID: d.ID.Hex()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (time.Time, primitive.ObjectID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	var c pageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	return time.UnixMilli(c.CreatedAt).UTC(), oid, nil
}
