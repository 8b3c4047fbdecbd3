/*
Package blob wraps remote object storage behind a whole-object API.

Objects are addressed by a container (a directory, a bucket, an Azure container
or a table partition depending on the driver) and a name. They are read and
written as a whole: there are no partial writes, no versioning and no locking
at this level. Callers that need mutual exclusion use pkg/lock around a
fetch/store cycle.
*/
package blob
