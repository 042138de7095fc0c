package domain

import "time"

// Vendor — поставщик стройматериалов. Один поставщик может владеть
// несколькими складами.
type Vendor struct {
	ID   string
	Name string
	// ChannelID — внешний канал уведомлений поставщика (чат, push и т.п.).
	ChannelID string
}

// VendorStorage — физический склад поставщика с координатами.
// Склад принадлежит ровно одному поставщику.
type VendorStorage struct {
	ID       string
	VendorID string
	Name     string
	Lat      float64
	Lon      float64
}

// Material — справочная позиция материала.
type Material struct {
	ID   string
	Name string
	// Unit — единица измерения, по умолчанию кубометр.
	Unit string
}

// StorageMaterial — позиция (склад, материал) с ценой за единицу объёма
// и коэффициентом стоимости доставки на километр.
// Инвариант: не более одной активной строки на пару (склад, материал),
// обеспечивается upsert-by-key в хранилище.
type StorageMaterial struct {
	StorageID  string
	MaterialID string
	// PricePerUnit — цена за кубометр.
	PricePerUnit float64
	// DeliveryCostPerKm — стоимость доставки за километр маршрута.
	DeliveryCostPerKm float64
	UpdatedAt         time.Time
}

// ValidateInvariants проверяет базовые инварианты позиции склада.
func (m *StorageMaterial) ValidateInvariants() []error {
	var errs []error

	if m.StorageID == "" {
		errs = append(errs, ErrStorageIDRequired)
	}
	if m.MaterialID == "" {
		errs = append(errs, ErrMaterialRequired)
	}
	if m.PricePerUnit < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if m.DeliveryCostPerKm < 0 {
		errs = append(errs, ErrDeliveryCostNegative)
	}

	return errs
}
