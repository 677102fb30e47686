package totalsdk

import (
	"fmt"
	"strings"
	"time"
)

const (
	HeaderUserAgent     = "User-Agent"
	HeaderAuthorization = "Authorization"
	HeaderDeviceID      = "X-Device-Id"
	HeaderAppVersion    = "X-App-Version"
)

// OwnerType is the category of entity a committed file belongs to
type OwnerType string

const (
	OwnerTenant           OwnerType = "TENANT"
	OwnerBuilding         OwnerType = "BUILDING"
	OwnerRoom             OwnerType = "ROOM"
	OwnerRentalSpace      OwnerType = "RENTAL_SPACE"
	OwnerEmailData        OwnerType = "EMAIL_DATA"
	OwnerBuildingLocation OwnerType = "BUILDING_LOCATION"
	OwnerFirm             OwnerType = "FIRM"
	OwnerCar              OwnerType = "CAR"
	OwnerOther            OwnerType = "OTHER"
)

var ownerTypes = []OwnerType{
	OwnerTenant,
	OwnerBuilding,
	OwnerRoom,
	OwnerRentalSpace,
	OwnerEmailData,
	OwnerBuildingLocation,
	OwnerFirm,
	OwnerCar,
	OwnerOther,
}

// OwnerTypes lists every accepted owner type in declaration order
func OwnerTypes() []OwnerType {
	out := make([]OwnerType, len(ownerTypes))
	copy(out, ownerTypes)
	return out
}

func (o OwnerType) Valid() bool {
	for _, t := range ownerTypes {
		if o == t {
			return true
		}
	}
	return false
}

func (o OwnerType) String() string {
	return string(o)
}

// ParseOwnerType accepts any casing and `-` in place of `_`
func ParseOwnerType(s string) (OwnerType, error) {
	o := OwnerType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwnerType, s)
	}
	return o, nil
}

// Owner identifies the entity whose files are being edited
type Owner struct {
	Type OwnerType `json:"ownerType"`
	ID   int64     `json:"ownerId"`
}

func (o Owner) String() string {
	return fmt.Sprintf("%s/%d", o.Type, o.ID)
}

func (o Owner) Validate() error {
	if !o.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOwnerType, o.Type)
	}
	if o.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOwnerID, o.ID)
	}
	return nil
}

// StagedFile is a file accepted by the staging endpoint but not yet linked to an owner
type StagedFile struct {
	TempID      string     `json:"tempId"`
	BatchID     string     `json:"batchId,omitempty"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
}

// CommittedFile is a file permanently associated with an owner
type CommittedFile struct {
	ID          string     `json:"id"`
	OwnerType   OwnerType  `json:"ownerType"`
	OwnerID     int64      `json:"ownerId"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	Checksum    string     `json:"checksum"`
	DownloadURL string     `json:"downloadUrl"`
	ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty"`
}

// FormatTimestamp renders t the way the staging endpoint expects modifiedAt:
// UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
