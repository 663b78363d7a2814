/*
Package http implements the REST API.

Faculties, students and courses share one generic Resource that maps
requests onto a Repository:

	GET    /api/<collection>       list
	GET    /api/<collection>/:id   fetch
	POST   /api/<collection>       create with defaults
	PUT    /api/<collection>/:id   partial update of supplied fields
	DELETE /api/<collection>/:id   remove

Errors are reported as {"message": ...}: 400 for malformed ids and
validation failures, 404 for missing documents, 503 while the database is
unavailable.
*/
package http
