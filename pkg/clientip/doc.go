// Package clientip resolves the real client address of a request, honouring
// only the proxy headers the deployment explicitly trusts.
package clientip
