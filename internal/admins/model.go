package admins

type Admin struct {
	ID        string `bson:"_id" json:"id"`
	NetworkID string `bson:"networkId" json:"networkId"`
	Name      string `bson:"name" json:"name"`
	Role      string `bson:"role" json:"role"`
}

type RegisterRequest struct {
	NetworkID string `json:"networkId" validate:"required,max=128"`
	Name      string `json:"name" validate:"required,max=256"`
}

type LoginRequest struct {
	NetworkID string `json:"networkId" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Admin Admin  `json:"admin"`
	Token string `json:"token"`
}
