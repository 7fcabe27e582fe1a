// Package demoapi is a small validating JSON API for trying forms out.
//
// It serves an in-memory users resource and answers invalid input the way
// form-backed APIs commonly do, with 422 and a field error map:
//
//	POST /users  {"name": "", "email": "x", "age": 0}
//
//	422 {
//	  "message": "The given data was invalid.",
//	  "errors": {
//	    "name":  ["The name field is required."],
//	    "email": ["The email must be a valid email address."]
//	  }
//	}
//
// Routes:
//
//	GET     /users          list users, optional ?q= name filter
//	POST    /users          create a user
//	OPTIONS /users          allowed methods
//	GET     /users/{id}     fetch one user
//	PUT     /users/{id}     replace a user
//	PATCH   /users/{id}     update some fields of a user
//	DELETE  /users/{id}     remove a user
package demoapi
