package accessgrants

// PermissionSet es el set cerrado de capacidades resueltas para un par actor/persona.
// Struct con booleans nombrados, no un map: así el techo de delete/share
// lo sostiene el tipo y no un filtro runtime que algún code path podría saltarse.
type PermissionSet struct {
	CanView             bool `json:"view"`
	CanEdit             bool `json:"edit"`
	CanViewDemographics bool `json:"view_demographics"`
	CanEditNotes        bool `json:"edit_notes"`
	CanDelete           bool `json:"delete"`
	CanShare            bool `json:"share"`
}

// Union combina dos sets aditivamente.
func (p PermissionSet) Union(o PermissionSet) PermissionSet {
	return PermissionSet{
		CanView:             p.CanView || o.CanView,
		CanEdit:             p.CanEdit || o.CanEdit,
		CanViewDemographics: p.CanViewDemographics || o.CanViewDemographics,
		CanEditNotes:        p.CanEditNotes || o.CanEditNotes,
		CanDelete:           p.CanDelete || o.CanDelete,
		CanShare:            p.CanShare || o.CanShare,
	}
}

// OwnerPermissions es el set máximo: solo la ownership lo otorga.
func OwnerPermissions() PermissionSet {
	return PermissionSet{
		CanView:             true,
		CanEdit:             true,
		CanViewDemographics: true,
		CanEditNotes:        true,
		CanDelete:           true,
		CanShare:            true,
	}
}

// Resolve arma el set efectivo de un grant: template por access level,
// más overrides explícitos aditivos, y al final el techo incondicional.
// Función pura y total: siempre devuelve un valor.
func Resolve(level AccessLevel, explicit PermissionSet) PermissionSet {
	var out PermissionSet

	switch level {
	case AccessLevelFull:
		out.CanView = true
		out.CanEdit = true
	case AccessLevelLimited:
		out.CanView = true
	}

	out = out.Union(explicit)

	// Techo duro: un grant jamás delega delete ni share, venga lo que venga
	// en el payload (incluso data malformada o armada a propósito).
	out.CanDelete = false
	out.CanShare = false

	return out
}
