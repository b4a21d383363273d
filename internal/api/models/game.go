package models

// PlaceRequest defines the structure for a placement request.
type PlaceRequest struct {
	Position *int `json:"position" validate:"required,min=0,max=8"`
}

// ModeRequest defines the structure for a mode switch request.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required,game_mode"`
}
