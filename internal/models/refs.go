package models

// References lists the foreign keys of a model by target collection name.
func (p *Product) References() map[string]string {
	return map[string]string{"brands": p.BrandID}
}

func (r *Review) References() map[string]string {
	return map[string]string{"products": r.ProductID, "users": r.UserID}
}

func (s *Sale) References() map[string]string {
	return map[string]string{"products": s.ProductID, "users": s.UserID}
}
