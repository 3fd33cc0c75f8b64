package sqlinline

const QIncrementUsage = `--sql b5d7fa6d-3f20-4877-bd0a-1d11d836447d
insert into usage_records (id, user_id, usage_date, usage_count, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::date, 1, now(), now())
on conflict (user_id, usage_date) do update
    set usage_count = usage_records.usage_count + 1,
        updated_at = now()
returning usage_count;
`

const QSelectUsageCount = `--sql 76b834ad-d871-41fc-b6f5-76427f7f1a7a
select usage_count
from usage_records
where user_id = $1::uuid
  and usage_date = $2::date
limit 1;
`

const QSelectUsageHistory = `--sql 9fe32476-5873-4f17-ad09-5003aa6552c3
select usage_date::text, usage_count, created_at, updated_at
from usage_records
where user_id = $1::uuid
order by usage_date desc
limit $2::int;
`
