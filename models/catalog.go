package models

// Static catalog content served read-only: marketplace, articles, medical
// centers, and forum topics. Loaded from data/catalog.json at startup.

type MarketplaceItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	PriceNGN  int    `json:"price_ngn"`
	ImageURL  string `json:"image_url"`
	InStock   bool   `json:"in_stock"`
	SellerTag string `json:"seller_tag"`
}

type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
	ReadTime string `json:"read_time"`
	Premium  bool   `json:"premium"`
}

type MedicalCenter struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Services string `json:"services"`
}

type ForumTopic struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Replies    int    `json:"replies"`
	LastActive string `json:"last_active"`
}

type CatalogData struct {
	Marketplace    []MarketplaceItem `json:"marketplace"`
	Articles       []Article         `json:"articles"`
	MedicalCenters []MedicalCenter   `json:"medical_centers"`
	ForumTopics    []ForumTopic      `json:"forum_topics"`
}
