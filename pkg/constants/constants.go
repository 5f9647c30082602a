// pkg/constants/constants.go
package constants

//============== ROLES ==============

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func IsKnownRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

//============== UPLOAD PREFIXES ==============

// UploadPrefixQRCodes - подкаталог хранилища для изображений QR-кодов.
const UploadPrefixQRCodes = "qrcodes"
