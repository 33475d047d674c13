package racedto

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
	Invite string `json:"invite"`
}

type JoinRequest struct {
	Invite string `json:"invite"`
}

type JoinResponse struct {
	RoomID string `json:"roomId"`
}
