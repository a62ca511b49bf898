// Package sync contains the domain model for the commerce↔ERP bridge:
// webhook event payloads, the order→document mapping, the credential
// contract, and the port interfaces for the two remote systems.
//
// Following the Ports & Adapters pattern, the interfaces here are
// implemented by the adapters in internal/infrastructure/erp,
// internal/infrastructure/commerce and internal/infrastructure/persistence.
package sync
