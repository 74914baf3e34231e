/*
Package observability provides Prometheus instrumentation for fsm machines.

Metrics are recorded by the session Manager, never by the core machine,
so the core keeps no side-effect hooks.
*/
package observability
