// Package repository define los tipos de dominio y las interfaces de acceso
// a datos del core de identidad: tenants, usuarios, sesiones y API tokens.
//
// Las implementaciones viven en internal/store/pg (PostgreSQL) e
// internal/store/memory (tests y modo dev). Los errores esperados se
// representan con los sentinels de errors.go y se chequean con errors.Is.
package repository
