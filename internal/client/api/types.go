package api

// Address is the structured postal address carried inside user details.
type Address struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Details is the editable part of a user profile.
type Details struct {
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	DateOfBirth   string   `json:"dateOfBirth"`
	Phone         string   `json:"phone"`
	Address       *Address `json:"address"`
	PhotoPath     string   `json:"photoPath"`
	ThumbnailPath string   `json:"thumbnailPath"`
}

// User is the account record as rendered by the server.
type User struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	Details Details `json:"details"`
}

// DetailsUpdate is the full profile mirror submitted on save. Every field is
// sent every time, so an empty field clears the stored value.
type DetailsUpdate struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	DateOfBirth string   `json:"dateOfBirth"`
	Phone       string   `json:"phone"`
	Address     *Address `json:"address"`
}

// LoginResult is the server response to a successful login.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	SessionToken string `json:"sessionToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	User         User   `json:"user"`
}

// Product is one catalog listing on the products screen.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CreatedAt   string  `json:"createdAt"`
}

// ProductPage is one page of the catalog.
type ProductPage struct {
	Items    []Product `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// PhotoResult is the server response to a photo upload.
type PhotoResult struct {
	PhotoPath     string `json:"photoPath"`
	ThumbnailPath string `json:"thumbnailPath"`
}
