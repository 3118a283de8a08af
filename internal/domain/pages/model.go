package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Page statuses for the storefront page type field. The list is open: custom
// section types from the builder front-end pass through untouched.
const (
	PageTypeHome    = "home"
	PageTypeProduct = "product"
	PageTypeAbout   = "about"
	PageTypeContact = "contact"
	PageTypeCustom  = "custom"
)

// Known section types. The engine never validates against this list; it exists
// for the builder config endpoint and for readability in tests.
const (
	SectionHero         = "hero"
	SectionProductGrid  = "product-grid"
	SectionTestimonials = "testimonials"
	SectionFooter       = "footer"
	SectionHTML         = "html"
	SectionGallery      = "gallery"
	SectionNewsletter   = "newsletter"
	SectionContactForm  = "contact-form"
	SectionCustom       = "custom"
)

type Page struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	UserID uint   `gorm:"not null;uniqueIndex:idx_pages_owner_slug" json:"-"`
	Slug   string `gorm:"not null;uniqueIndex:idx_pages_owner_slug" json:"slug"`

	Title    string `gorm:"not null" json:"title"`
	PageType string `gorm:"not null;default:'custom';index" json:"page_type"`

	// Colors, fonts, spacing. Schema belongs to the builder front-end; the
	// engine copies it verbatim into snapshots and never assumes keys.
	ThemeSettings datatypes.JSONMap `gorm:"type:jsonb" json:"theme_settings"`

	Published bool `gorm:"not null;default:false" json:"published"`
	IsActive  bool `gorm:"not null;default:false;index" json:"is_active"`
	Version   int  `gorm:"not null;default:0" json:"version"`

	Sections []Section `gorm:"foreignKey:PageID;references:ID;constraint:OnDelete:CASCADE;" json:"sections,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Section struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"section_id"`
	PageID string `gorm:"type:uuid;not null;index" json:"-"`

	Type string `gorm:"not null;index" json:"type"`

	// Dense 0..N-1 within the page after every mutation.
	SortIndex int  `gorm:"not null;default:0;index" json:"order"`
	Visible   bool `gorm:"not null;default:true" json:"visible"`

	// Per-breakpoint style overrides plus common fields; opaque to the engine.
	Settings datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"settings"`

	Blocks []Block `gorm:"foreignKey:SectionID;references:ID;constraint:OnDelete:CASCADE;" json:"blocks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Block struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"block_id"`
	SectionID string `gorm:"type:uuid;not null;index" json:"-"`

	Type      string `gorm:"not null" json:"type"`
	SortIndex int    `gorm:"not null;default:0" json:"order"`

	Content  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"content"`
	Settings datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IDs are assigned app-side so identity exists before the row is written and
// so the same models run against sqlite in tests.

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
