package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"car-price/internal/domain"

	"github.com/google/uuid"
)

const recordIDLength = 16

// newRecordID derives a history id from the car, the timestamp and a random
// nonce, so identical cars priced at the same instant still get distinct ids
func newRecordID(car domain.CarAttributes, ts time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d|%d|", car.Brand, car.Name, car.BodyType, car.Color, car.FuelType, car.Year, car.Power)
	h.Write([]byte(ts.Format(time.RFC3339Nano)))
	nonce := uuid.New()
	h.Write(nonce[:])
	return hex.EncodeToString(h.Sum(nil))[:recordIDLength]
}
