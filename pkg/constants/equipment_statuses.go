package constants

// EquipmentStatus - текущее состояние единицы оборудования (совпадает со значениями в БД).
type EquipmentStatus string

const (
	EquipmentStatusAvailable EquipmentStatus = "available"
	EquipmentStatusIssued    EquipmentStatus = "issued"
	EquipmentStatusLost      EquipmentStatus = "lost"
)

// EquipmentStatuses - все допустимые значения. Переход разрешён из любого в любой.
var EquipmentStatuses = []EquipmentStatus{
	EquipmentStatusAvailable,
	EquipmentStatusIssued,
	EquipmentStatusLost,
}

func (s EquipmentStatus) String() string {
	return string(s)
}

func (s EquipmentStatus) IsValid() bool {
	for _, known := range EquipmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}
