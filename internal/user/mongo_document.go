package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userDocument is the MongoDB shape of a user.
//
// Older EcoSphere deployments wrote three different shapes into the same
// collection: the gamification shape (name/level/badge objects), the Firestore
// export (googleId, gameHistory) and a Portuguese shape (nome/senha/nivel and
// badges as plain strings). Reads accept all of them; writes always use the
// canonical fields.
type userDocument struct {
	ID bson.RawValue `bson:"_id"`

	Name     string `bson:"name,omitempty"`
	Nome     string `bson:"nome,omitempty"`
	Email    string `bson:"email"`
	Password string `bson:"password,omitempty"`
	Senha    string `bson:"senha,omitempty"`
	Picture  string `bson:"picture,omitempty"`

	Provider   string `bson:"provider,omitempty"`
	ProviderID string `bson:"providerId,omitempty"`
	GoogleID   string `bson:"googleId,omitempty"`

	EcoPoints int    `bson:"ecoPoints"`
	Level     string `bson:"level,omitempty"`

	Badges               bson.RawValue         `bson:"badges,omitempty"`
	WasteClassifications []WasteClassification `bson:"wasteClassifications,omitempty"`
	GameHistory          []GameEntry           `bson:"gameHistory,omitempty"`
	Redemptions          []Redemption          `bson:"redemptions,omitempty"`
	Streak               *Streak               `bson:"streak,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt,omitempty"`
	DataCriacao time.Time  `bson:"dataCriacao,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt,omitempty"`
	LastLoginAt *time.Time `bson:"lastLogin,omitempty"`
}

// canonicalDocument is what the repository writes.
type canonicalDocument struct {
	ID                   string                `bson:"_id,omitempty"`
	Name                 string                `bson:"name"`
	Email                string                `bson:"email"`
	Password             string                `bson:"password,omitempty"`
	Picture              string                `bson:"picture,omitempty"`
	Provider             string                `bson:"provider"`
	ProviderID           string                `bson:"providerId,omitempty"`
	EcoPoints            int                   `bson:"ecoPoints"`
	Level                string                `bson:"level"`
	Badges               []EarnedBadge         `bson:"badges"`
	WasteClassifications []WasteClassification `bson:"wasteClassifications"`
	GameHistory          []GameEntry           `bson:"gameHistory"`
	Redemptions          []Redemption          `bson:"redemptions"`
	Streak               Streak                `bson:"streak"`
	CreatedAt            time.Time             `bson:"createdAt"`
	UpdatedAt            time.Time             `bson:"updatedAt"`
	LastLoginAt          *time.Time            `bson:"lastLogin,omitempty"`
}

// legacyBadge matches badge entries stored as sub-documents.
type legacyBadge struct {
	ID       int       `bson:"id"`
	BadgeID  int       `bson:"badgeId"`
	Name     string    `bson:"name"`
	EarnedAt time.Time `bson:"earnedAt"`
}

// documentAdapter converts between stored documents and the canonical User.
type documentAdapter struct {
	badgeIDByName func(name string) (int, bool)
	levelFor      func(points int) string
}

func (a documentAdapter) toUser(doc *userDocument) *User {
	u := &User{
		ID:                   rawID(doc.ID),
		Name:                 firstNonEmpty(doc.Name, doc.Nome),
		Email:                NormalizeEmail(doc.Email),
		PasswordHash:         firstNonEmpty(doc.Password, doc.Senha),
		Picture:              doc.Picture,
		Provider:             Provider(doc.Provider),
		ProviderID:           firstNonEmpty(doc.ProviderID, doc.GoogleID),
		EcoPoints:            doc.EcoPoints,
		Level:                doc.Level,
		Badges:               a.decodeBadges(doc.Badges),
		WasteClassifications: nonNil(doc.WasteClassifications),
		GameHistory:          nonNil(doc.GameHistory),
		Redemptions:          nonNil(doc.Redemptions),
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
		LastLoginAt:          doc.LastLoginAt,
	}

	if !u.Provider.Valid() {
		if doc.GoogleID != "" {
			u.Provider = ProviderGoogle
		} else {
			u.Provider = ProviderLocal
		}
	}
	if u.EcoPoints < 0 {
		u.EcoPoints = 0
	}
	// Level is derived; the Portuguese shape stored a numeric "nivel" instead.
	if a.levelFor != nil {
		u.Level = a.levelFor(u.EcoPoints)
	} else if u.Level == "" {
		u.Level = InitialLevel
	}
	if doc.Streak != nil {
		u.Streak = *doc.Streak
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = doc.DataCriacao
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	return u
}

func (a documentAdapter) decodeBadges(raw bson.RawValue) []EarnedBadge {
	badges := []EarnedBadge{}
	if raw.Type != bson.TypeArray {
		return badges
	}

	values, err := raw.Array().Values()
	if err != nil {
		return badges
	}

	seen := make(map[int]bool, len(values))
	for _, v := range values {
		var badge EarnedBadge

		switch v.Type {
		case bson.TypeEmbeddedDocument:
			var lb legacyBadge
			if err := v.Unmarshal(&lb); err != nil {
				continue
			}
			badge = EarnedBadge{BadgeID: lb.ID, Name: lb.Name, EarnedAt: lb.EarnedAt}
			if badge.BadgeID == 0 {
				badge.BadgeID = lb.BadgeID
			}
			if badge.BadgeID == 0 && a.badgeIDByName != nil {
				badge.BadgeID, _ = a.badgeIDByName(lb.Name)
			}
		case bson.TypeString:
			name := v.StringValue()
			if a.badgeIDByName == nil {
				continue
			}
			id, ok := a.badgeIDByName(name)
			if !ok {
				continue
			}
			badge = EarnedBadge{BadgeID: id, Name: name}
		default:
			continue
		}

		if badge.BadgeID == 0 || seen[badge.BadgeID] {
			continue
		}
		seen[badge.BadgeID] = true
		badges = append(badges, badge)
	}

	return badges
}

func (a documentAdapter) toDocument(u *User) canonicalDocument {
	return canonicalDocument{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                NormalizeEmail(u.Email),
		Password:             u.PasswordHash,
		Picture:              u.Picture,
		Provider:             string(u.Provider),
		ProviderID:           u.ProviderID,
		EcoPoints:            u.EcoPoints,
		Level:                u.Level,
		Badges:               nonNil(u.Badges),
		WasteClassifications: nonNil(u.WasteClassifications),
		GameHistory:          nonNil(u.GameHistory),
		Redemptions:          nonNil(u.Redemptions),
		Streak:               u.Streak,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
		LastLoginAt:          u.LastLoginAt,
	}
}

// rawID renders a stored _id as a string. Legacy documents use ObjectIDs.
func rawID(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

// idFilter matches a user by canonical string id or legacy ObjectID hex.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
