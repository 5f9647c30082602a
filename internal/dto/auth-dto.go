package dto

type LoginDTO struct {
	Username string `json:"username" form:"username" validate:"required,max=255"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type AuthResponseDTO struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         UserPublicDTO `json:"user"`
}

type UserPublicDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ResetPasswordDTO struct {
	Username string `json:"username" validate:"required,not_blank,max=255"`
	Password string `json:"password" validate:"required,min=4"`
}

type CreateUserDTO struct {
	Username string `json:"username" validate:"required,not_blank,max=255"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}
