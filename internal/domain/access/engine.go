package access

import (
	"context"
	"errors"

	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
)

// ErrAccessDenied es la denegación genérica: a propósito NO distingue
// "la persona no existe" de "existe pero no tenés acceso" (no filtramos
// existencia). Los colaboradores la traducen a 403 en su borde.
var ErrAccessDenied = errors.New("access denied")

// OwnershipIndex es el lookup binario de ownership (§persons).
type OwnershipIndex interface {
	IsOwner(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (bool, error)
}

// GrantSource devuelve los grants activos y no vencidos para un actor/persona.
type GrantSource interface {
	ActiveGrants(ctx context.Context, granteeType persons.AccessorType, granteeID, personID string) ([]accessgrants.Grant, error)
}

// Engine es el contrato público que consume TODO colaborador de datos
// clínicos/educativos antes de devolver o mutar nada sobre una persona.
// Lecturas puras, sin side effects, paralelizables.
type Engine struct {
	owners OwnershipIndex
	grants GrantSource
}

func NewEngine(owners OwnershipIndex, grants GrantSource) *Engine {
	return &Engine{
		owners: owners,
		grants: grants,
	}
}

// CheckAccess: ownership OR grant activo. La ownership corta primero
// (camino barato y caso común).
func (e *Engine) CheckAccess(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (bool, error) {
	owner, err := e.owners.IsOwner(ctx, accessorType, accessorID, personID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}

	gs, err := e.grants.ActiveGrants(ctx, accessorType, accessorID, personID)
	if err != nil {
		return false, err
	}
	return len(gs) > 0, nil
}

// GetPermissions: owner => set máximo (delete y share incluidos).
// Si no, la UNIÓN de los sets resueltos de todos los grants activos
// (siempre bajo el techo de delete/share). Sin ownership ni grant => todo false.
func (e *Engine) GetPermissions(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (accessgrants.PermissionSet, error) {
	owner, err := e.owners.IsOwner(ctx, accessorType, accessorID, personID)
	if err != nil {
		return accessgrants.PermissionSet{}, err
	}
	if owner {
		return accessgrants.OwnerPermissions(), nil
	}

	gs, err := e.grants.ActiveGrants(ctx, accessorType, accessorID, personID)
	if err != nil {
		return accessgrants.PermissionSet{}, err
	}

	var out accessgrants.PermissionSet
	for _, g := range gs {
		out = out.Union(accessgrants.Resolve(g.AccessLevel, g.Permissions))
	}
	// Resolve ya aplicó el techo grant por grant; acá llegamos sin ownership,
	// así que delete/share quedan en false sí o sí.
	out.CanDelete = false
	out.CanShare = false

	return out, nil
}

// RequireAccess es el guard clause: falla ANTES de que el caller lea o mute
// nada (cero disclosure parcial en denegación).
func (e *Engine) RequireAccess(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) error {
	ok, err := e.CheckAccess(ctx, accessorType, accessorID, personID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}
